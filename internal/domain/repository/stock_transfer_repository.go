package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockTransferRepository puerto de persistencia para traslados y sus líneas (DIP).
type StockTransferRepository interface {
	// Create inserta cabecera y líneas. Devuelve domain.ErrDuplicate si el
	// transfer_number ya existe en el tenant (constraint único); el caso de uso
	// reintenta con el siguiente número.
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error)
	// GetForUpdate bloquea la cabecera (FOR UPDATE) para serializar
	// ship/receive/cancel concurrentes sobre el mismo traslado.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error)
	// MaxTransferNumber mayor transfer_number existente con el prefijo dado
	// (orden lexicográfico); cadena vacía si no hay ninguno.
	MaxTransferNumber(ctx context.Context, tenantID, prefix string) (string, error)
	// UpdateStatus persiste estado y timestamps de transición de la cabecera.
	UpdateStatus(ctx context.Context, transfer *entity.StockTransfer) error
	// UpdateItem persiste cantidades/costo/razón de una línea.
	UpdateItem(ctx context.Context, item *entity.TransferItem) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockTransfer, error)
}
