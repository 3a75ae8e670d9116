package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// Los asientos son inmutables: no hay UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, tenant_id, product_id, location_id, type, quantity, unit_cost, total_cost, reference_type, reference_id, note, created_by, created_at`

// Create persiste un asiento del libro mayor.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.ProductID, m.LocationID, m.Type,
		m.Quantity, m.UnitCost, m.TotalCost,
		string(m.ReferenceType), m.ReferenceID, m.Note, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento del tenant.
func (r *StockMovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE tenant_id = $1 AND id = $2`
	var m entity.StockMovement
	var refType string
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&m.ID, &m.TenantID, &m.ProductID, &m.LocationID, &m.Type,
		&m.Quantity, &m.UnitCost, &m.TotalCost,
		&refType, &m.ReferenceID, &m.Note, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	m.ReferenceType = entity.ReferenceType(refType)
	return &m, nil
}

// ListByProduct movimientos de un producto en una ubicación, más reciente primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, tenantID, productID, locationID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3
		ORDER BY created_at DESC LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, tenantID, productID, locationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var refType string
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.LocationID, &m.Type,
			&m.Quantity, &m.UnitCost, &m.TotalCost,
			&refType, &m.ReferenceID, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.ReferenceType = entity.ReferenceType(refType)
		list = append(list, &m)
	}
	return list, rows.Err()
}
