package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo implementación de BalanceRepository sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

const balanceColumns = `tenant_id, product_id, location_id, on_hand_qty, reserved_qty, updated_at`

// Get devuelve el saldo; fila en cero si no existe.
func (r *BalanceRepo) Get(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3`
	return r.getOne(ctx, query, tenantID, productID, locationID)
}

// GetForUpdate igual que Get pero bloqueando la fila (SELECT FOR UPDATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3
		FOR UPDATE`
	return r.getOne(ctx, query, tenantID, productID, locationID)
}

func (r *BalanceRepo) getOne(ctx context.Context, query, tenantID, productID, locationID string) (*entity.Balance, error) {
	var b entity.Balance
	err := r.q.QueryRow(ctx, query, tenantID, productID, locationID).Scan(
		&b.TenantID, &b.ProductID, &b.LocationID, &b.OnHandQty, &b.ReservedQty, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Balance{TenantID: tenantID, ProductID: productID, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}

// GetMany lectura batcheada de saldos para validar disponibilidad en una sola consulta.
func (r *BalanceRepo) GetMany(ctx context.Context, tenantID, locationID string, productIDs []string) (map[string]*entity.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE tenant_id = $1 AND location_id = $2 AND product_id = ANY($3)`
	rows, err := r.q.Query(ctx, query, tenantID, locationID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get balances: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*entity.Balance, len(productIDs))
	for rows.Next() {
		var b entity.Balance
		if err := rows.Scan(&b.TenantID, &b.ProductID, &b.LocationID, &b.OnHandQty, &b.ReservedQty, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		result[b.ProductID] = &b
	}
	return result, rows.Err()
}

// ApplyDelta upsert con incremento atómico en una sola sentencia: crea la fila
// si no existe (con on_hand = max(0, delta)) o suma los deltas sobre la fila
// existente. Nunca leer-modificar-escribir: esto evita lost updates bajo
// callers concurrentes sobre la misma llave.
func (r *BalanceRepo) ApplyDelta(ctx context.Context, tenantID, productID, locationID string, deltaOnHand, deltaReserved int64) error {
	query := `
		INSERT INTO balances (tenant_id, product_id, location_id, on_hand_qty, reserved_qty, updated_at)
		VALUES ($1, $2, $3, GREATEST($4, 0), GREATEST($5, 0), now())
		ON CONFLICT (tenant_id, product_id, location_id)
		DO UPDATE SET
			on_hand_qty  = balances.on_hand_qty + $4,
			reserved_qty = balances.reserved_qty + $5,
			updated_at   = now()`
	_, err := r.q.Exec(ctx, query, tenantID, productID, locationID, deltaOnHand, deltaReserved)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	return nil
}
