package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockReservationRepository = (*StockReservationRepo)(nil)

// StockReservationRepo implementación sobre PostgreSQL (usable con pool o tx).
type StockReservationRepo struct {
	q Querier
}

// NewStockReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockReservationRepository(q Querier) *StockReservationRepo {
	return &StockReservationRepo{q: q}
}

const reservationColumns = `id, tenant_id, product_id, location_id, quantity, status, expires_at, reference_type, reference_id, created_by, created_at, updated_at`

// Create persiste una reserva nueva.
func (r *StockReservationRepo) Create(ctx context.Context, res *entity.StockReservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.TenantID, res.ProductID, res.LocationID, res.Quantity,
		res.Status, res.ExpiresAt, res.ReferenceType, res.ReferenceID,
		res.CreatedBy, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva del tenant.
func (r *StockReservationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations WHERE tenant_id = $1 AND id = $2`
	var res entity.StockReservation
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&res.ID, &res.TenantID, &res.ProductID, &res.LocationID, &res.Quantity,
		&res.Status, &res.ExpiresAt, &res.ReferenceType, &res.ReferenceID,
		&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// GetForUpdate bloquea la reserva por ID sin filtro de tenant (lo usa el job
// de expiración, que solo conoce la llave). Devuelve nil si no existe.
func (r *StockReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations WHERE id = $1
		FOR UPDATE`
	var res entity.StockReservation
	err := r.q.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.TenantID, &res.ProductID, &res.LocationID, &res.Quantity,
		&res.Status, &res.ExpiresAt, &res.ReferenceType, &res.ReferenceID,
		&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation for update: %w", err)
	}
	return &res, nil
}

// Update persiste cantidad, expiración y referencias.
func (r *StockReservationRepo) Update(ctx context.Context, res *entity.StockReservation) error {
	query := `
		UPDATE stock_reservations
		SET quantity = $2, expires_at = $3, reference_type = $4, reference_id = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, res.ID, res.Quantity, res.ExpiresAt, res.ReferenceType, res.ReferenceID, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

// UpdateStatus transición terminal (RELEASED | EXPIRED).
func (r *StockReservationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE stock_reservations SET status = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	return nil
}

// ListExpired reservas ACTIVE vencidas; barrido de respaldo para timers perdidos.
func (r *StockReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]entity.StockReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM stock_reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at LIMIT $3`
	rows, err := r.q.Query(ctx, query, entity.ReservationStatusActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var list []entity.StockReservation
	for rows.Next() {
		var res entity.StockReservation
		if err := rows.Scan(&res.ID, &res.TenantID, &res.ProductID, &res.LocationID, &res.Quantity,
			&res.Status, &res.ExpiresAt, &res.ReferenceType, &res.ReferenceID,
			&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}
