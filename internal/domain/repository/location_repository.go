package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LocationRepository puerto de solo lectura sobre ubicaciones/bodegas (DIP).
type LocationRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error)
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Location, error)
}
