package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository puerto de solo lectura sobre el catálogo (DIP).
// El CRUD de productos es de otro subsistema; aquí solo se valida existencia
// tipo y método de costeo.
type ProductRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	// GetByIDs devuelve los productos existentes (no borrados) del tenant;
	// los IDs ausentes simplemente no vienen en el resultado.
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Product, error)
}
