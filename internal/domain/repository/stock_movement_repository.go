package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockMovementRepository puerto de persistencia para asientos del libro mayor (DIP).
// Los asientos son inmutables: solo Create y lecturas.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error)
	// ListByProduct movimientos de un producto en una ubicación, más reciente primero.
	ListByProduct(ctx context.Context, tenantID, productID, locationID string, limit, offset int) ([]*entity.StockMovement, error)
}
