package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ValuationLayerRepository puerto para capas de valuación y su auditoría de consumo (DIP).
type ValuationLayerRepository interface {
	// Create inserta una capa nueva con RemainingQty = OriginalQty.
	Create(ctx context.Context, layer *entity.ValuationLayer) error
	// ListOpenForUpdate capas con restante > 0 ordenadas por created_at ASC,
	// bloqueadas (FOR UPDATE) para que el consumo y el saldo compartan la misma
	// frontera transaccional.
	ListOpenForUpdate(ctx context.Context, tenantID, productID, locationID string) ([]entity.ValuationLayer, error)
	// DecrementRemaining descuenta qty del restante de la capa; falla si el
	// restante es menor que qty (la fila ya debe estar bloqueada por el caller).
	DecrementRemaining(ctx context.Context, layerID string, qty int64) error
	// CreateConsumptions persiste los registros de auditoría capa→movimiento.
	CreateConsumptions(ctx context.Context, records []entity.LayerConsumption) error
	// AvailableQuantity suma de restantes; cruce de control contra Balance.OnHandQty.
	AvailableQuantity(ctx context.Context, tenantID, productID, locationID string) (int64, error)
}
