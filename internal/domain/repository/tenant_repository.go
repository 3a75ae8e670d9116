package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TenantRepository puerto de solo lectura sobre el tenant (método de costeo por defecto).
type TenantRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
}
