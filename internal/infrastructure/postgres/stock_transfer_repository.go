package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo implementación sobre PostgreSQL (usable con pool o tx).
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

const transferColumns = `id, tenant_id, transfer_number, from_location_id, to_location_id, status, note, created_by, created_at, shipped_at, received_at, cancelled_at`

// Create inserta cabecera y líneas. Traduce la violación del constraint único
// (tenant_id, transfer_number) a domain.ErrDuplicate para que el caso de uso
// reintente la numeración.
func (r *StockTransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.TransferNumber, t.FromLocationID, t.ToLocationID,
		t.Status, t.Note, t.CreatedBy, t.CreatedAt, t.ShippedAt, t.ReceivedAt, t.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transfer number %s: %w", t.TransferNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("create transfer: %w", err)
	}

	itemQuery := `
		INSERT INTO stock_transfer_items
			(id, transfer_id, product_id, requested_qty, shipped_qty, shipped_unit_cost, received_qty, shortage_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range t.Items {
		item := &t.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, t.ID, item.ProductID, item.RequestedQty,
			item.ShippedQty, item.ShippedUnitCost, item.ReceivedQty, item.ShortageReason,
		); err != nil {
			return fmt.Errorf("create transfer item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un traslado con sus líneas.
func (r *StockTransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM stock_transfers WHERE tenant_id = $1 AND id = $2`
	return r.getOne(ctx, query, tenantID, id)
}

// GetForUpdate obtiene el traslado bloqueando la cabecera: serializa
// ship/receive/cancel concurrentes sobre el mismo ID.
func (r *StockTransferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM stock_transfers WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`
	return r.getOne(ctx, query, tenantID, id)
}

func (r *StockTransferRepo) getOne(ctx context.Context, query, tenantID, id string) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.TransferNumber, &t.FromLocationID, &t.ToLocationID,
		&t.Status, &t.Note, &t.CreatedBy, &t.CreatedAt, &t.ShippedAt, &t.ReceivedAt, &t.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	items, err := r.listItems(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return &t, nil
}

func (r *StockTransferRepo) listItems(ctx context.Context, transferID string) ([]entity.TransferItem, error) {
	query := `
		SELECT id, transfer_id, product_id, requested_qty, shipped_qty, shipped_unit_cost, received_qty, shortage_reason
		FROM stock_transfer_items WHERE transfer_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()

	var items []entity.TransferItem
	for rows.Next() {
		var item entity.TransferItem
		if err := rows.Scan(&item.ID, &item.TransferID, &item.ProductID, &item.RequestedQty,
			&item.ShippedQty, &item.ShippedUnitCost, &item.ReceivedQty, &item.ShortageReason); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MaxTransferNumber mayor número existente con el prefijo (el sufijo de ancho
// fijo hace que el orden lexicográfico coincida con el numérico).
func (r *StockTransferRepo) MaxTransferNumber(ctx context.Context, tenantID, prefix string) (string, error) {
	query := `
		SELECT transfer_number FROM stock_transfers
		WHERE tenant_id = $1 AND transfer_number LIKE $2 || '%'
		ORDER BY transfer_number DESC LIMIT 1`
	var number string
	err := r.q.QueryRow(ctx, query, tenantID, prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("max transfer number: %w", err)
	}
	return number, nil
}

// UpdateStatus persiste estado y timestamps de transición.
func (r *StockTransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfers
		SET status = $3, shipped_at = $4, received_at = $5, cancelled_at = $6
		WHERE tenant_id = $1 AND id = $2`
	_, err := r.q.Exec(ctx, query, t.TenantID, t.ID, t.Status, t.ShippedAt, t.ReceivedAt, t.CancelledAt)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	return nil
}

// UpdateItem persiste cantidades, costo capturado y razón de faltante de una línea.
func (r *StockTransferRepo) UpdateItem(ctx context.Context, item *entity.TransferItem) error {
	query := `
		UPDATE stock_transfer_items
		SET shipped_qty = $2, shipped_unit_cost = $3, received_qty = $4, shortage_reason = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, item.ID, item.ShippedQty, item.ShippedUnitCost, item.ReceivedQty, item.ShortageReason)
	if err != nil {
		return fmt.Errorf("update transfer item: %w", err)
	}
	return nil
}

// List traslados del tenant, más recientes primero (sin líneas).
func (r *StockTransferRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockTransfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM stock_transfers WHERE tenant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockTransfer
	for rows.Next() {
		var t entity.StockTransfer
		if err := rows.Scan(&t.ID, &t.TenantID, &t.TransferNumber, &t.FromLocationID, &t.ToLocationID,
			&t.Status, &t.Note, &t.CreatedBy, &t.CreatedAt, &t.ShippedAt, &t.ReceivedAt, &t.CancelledAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
