package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/costing"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// CostingResolver resuelve el método de valuación efectivo: override del
// producto, si no el default del tenant, si no FIFO. Nunca falla; ante
// cualquier error de lectura cae al default.
type CostingResolver struct {
	products repository.ProductRepository
	tenants  repository.TenantRepository
}

// NewCostingResolver construye el resolver.
func NewCostingResolver(products repository.ProductRepository, tenants repository.TenantRepository) *CostingResolver {
	return &CostingResolver{products: products, tenants: tenants}
}

// Resolve devuelve el método para un producto del tenant.
func (r *CostingResolver) Resolve(ctx context.Context, tenantID, productID string) costing.Method {
	if p, err := r.products.GetByID(ctx, tenantID, productID); err == nil && p != nil &&
		p.CostingMethod != nil && *p.CostingMethod != "" {
		return costing.ParseMethod(*p.CostingMethod)
	}
	if t, err := r.tenants.GetByID(ctx, tenantID); err == nil && t != nil && t.CostingMethod != "" {
		return costing.ParseMethod(t.CostingMethod)
	}
	return costing.FIFO
}
