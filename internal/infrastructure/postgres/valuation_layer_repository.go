package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ValuationLayerRepository = (*ValuationLayerRepo)(nil)

// ValuationLayerRepo implementación sobre PostgreSQL (usable con pool o tx).
type ValuationLayerRepo struct {
	q Querier
}

// NewValuationLayerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewValuationLayerRepository(q Querier) *ValuationLayerRepo {
	return &ValuationLayerRepo{q: q}
}

// Create inserta una capa nueva.
func (r *ValuationLayerRepo) Create(ctx context.Context, layer *entity.ValuationLayer) error {
	if layer.ID == "" {
		layer.ID = uuid.New().String()
	}
	query := `
		INSERT INTO valuation_layers
			(id, tenant_id, product_id, location_id, original_qty, remaining_qty, unit_cost, source_movement_id, batch_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		layer.ID, layer.TenantID, layer.ProductID, layer.LocationID,
		layer.OriginalQty, layer.RemainingQty, layer.UnitCost,
		layer.SourceMovementID, layer.BatchID, layer.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create valuation layer: %w", err)
	}
	return nil
}

// ListOpenForUpdate capas con restante > 0 en orden de creación ascendente,
// bloqueadas para que consumo y saldo compartan la frontera transaccional.
// El desempate por id hace el orden total y estable.
func (r *ValuationLayerRepo) ListOpenForUpdate(ctx context.Context, tenantID, productID, locationID string) ([]entity.ValuationLayer, error) {
	query := `
		SELECT id, tenant_id, product_id, location_id, original_qty, remaining_qty, unit_cost, source_movement_id, batch_id, created_at
		FROM valuation_layers
		WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3 AND remaining_qty > 0
		ORDER BY created_at, id
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, tenantID, productID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list open layers: %w", err)
	}
	defer rows.Close()

	var layers []entity.ValuationLayer
	for rows.Next() {
		var l entity.ValuationLayer
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ProductID, &l.LocationID,
			&l.OriginalQty, &l.RemainingQty, &l.UnitCost, &l.SourceMovementID, &l.BatchID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan layer: %w", err)
		}
		layers = append(layers, l)
	}
	return layers, rows.Err()
}

// DecrementRemaining descuenta qty del restante; el WHERE protege contra
// dejar una capa en negativo aunque el caller ya tenga la fila bloqueada.
func (r *ValuationLayerRepo) DecrementRemaining(ctx context.Context, layerID string, qty int64) error {
	query := `
		UPDATE valuation_layers
		SET remaining_qty = remaining_qty - $2
		WHERE id = $1 AND remaining_qty >= $2`
	tag, err := r.q.Exec(ctx, query, layerID, qty)
	if err != nil {
		return fmt.Errorf("decrement layer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("decrement layer %s: restante insuficiente para %d", layerID, qty)
	}
	return nil
}

// CreateConsumptions persiste los registros de auditoría capa→movimiento.
func (r *ValuationLayerRepo) CreateConsumptions(ctx context.Context, records []entity.LayerConsumption) error {
	query := `
		INSERT INTO valuation_layer_consumptions (id, valuation_layer_id, stock_movement_id, quantity, unit_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, query, rec.ID, rec.LayerID, rec.MovementID, rec.Quantity, rec.UnitCost, rec.CreatedAt); err != nil {
			return fmt.Errorf("create layer consumption: %w", err)
		}
	}
	return nil
}

// AvailableQuantity suma de restantes; cruce de control contra Balance.OnHandQty.
func (r *ValuationLayerRepo) AvailableQuantity(ctx context.Context, tenantID, productID, locationID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(remaining_qty), 0)
		FROM valuation_layers
		WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3`
	var total int64
	if err := r.q.QueryRow(ctx, query, tenantID, productID, locationID).Scan(&total); err != nil {
		return 0, fmt.Errorf("layer available quantity: %w", err)
	}
	return total, nil
}
