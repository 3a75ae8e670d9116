package ledger

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AvailabilityItem demanda a validar contra el saldo disponible.
type AvailabilityItem struct {
	ProductID string
	Quantity  int64
}

// StockValidator guarda de solo lectura: existencia de productos/ubicaciones y
// suficiencia de stock disponible. No muta nada.
type StockValidator struct {
	products  repository.ProductRepository
	locations repository.LocationRepository
	balances  repository.BalanceRepository
}

// NewStockValidator construye el validador.
func NewStockValidator(
	products repository.ProductRepository,
	locations repository.LocationRepository,
	balances repository.BalanceRepository,
) *StockValidator {
	return &StockValidator{products: products, locations: locations, balances: balances}
}

// ValidateProducts verifica que todos los productos existan en el tenant y que
// ninguno sea un padre VARIABLE (el stock no se mantiene sobre el SKU padre).
func (v *StockValidator) ValidateProducts(ctx context.Context, tenantID string, productIDs []string) ([]*entity.Product, error) {
	ids := dedupe(productIDs)
	if len(ids) == 0 {
		return nil, domain.ErrInvalidInput
	}
	products, err := v.products.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
		if p.Type == entity.ProductTypeVariable {
			return nil, fmt.Errorf("el producto %s es de tipo VARIABLE y no admite stock directo: %w", p.ID, domain.ErrInvalidInput)
		}
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ProductsNotFoundError{MissingIDs: missing}
	}
	return products, nil
}

// ValidateLocation verifica que la ubicación exista, pertenezca al tenant y esté activa.
func (v *StockValidator) ValidateLocation(ctx context.Context, tenantID, locationID string) (*entity.Location, error) {
	loc, err := v.locations.GetByID(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil || !loc.IsActive {
		return nil, fmt.Errorf("ubicación %s inexistente o inactiva: %w", locationID, domain.ErrNotFound)
	}
	return loc, nil
}

// ValidateLocations igual que ValidateLocation para varias ubicaciones.
func (v *StockValidator) ValidateLocations(ctx context.Context, tenantID string, locationIDs ...string) error {
	for _, id := range locationIDs {
		if _, err := v.ValidateLocation(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStockAvailability valida disponible = en mano - reservado por ítem,
// leyendo los saldos en una sola consulta batcheada. Falla nombrando el primer
// producto insuficiente con sus cantidades.
func (v *StockValidator) ValidateStockAvailability(ctx context.Context, tenantID, locationID string, items []AvailabilityItem) error {
	agg := aggregateDemand(items)
	ids := make([]string, 0, len(agg))
	for _, it := range agg {
		ids = append(ids, it.ProductID)
	}
	balances, err := v.balances.GetMany(ctx, tenantID, locationID, ids)
	if err != nil {
		return err
	}
	return CheckAvailability(balances, agg)
}

// CheckAvailability valida demanda contra saldos ya cargados. Lo comparte el
// despacho de traslados, que lee los saldos dentro de su propia transacción.
func CheckAvailability(balances map[string]*entity.Balance, items []AvailabilityItem) error {
	for _, item := range items {
		b := balances[item.ProductID]
		if b == nil {
			b = &entity.Balance{ProductID: item.ProductID}
		}
		if b.Available() < item.Quantity {
			return &domain.InsufficientStockError{
				ProductID: item.ProductID,
				OnHand:    b.OnHandQty,
				Reserved:  b.ReservedQty,
				Available: b.Available(),
				Requested: item.Quantity,
			}
		}
	}
	return nil
}

// aggregateDemand suma cantidades por producto conservando el orden de primera aparición.
func aggregateDemand(items []AvailabilityItem) []AvailabilityItem {
	idx := make(map[string]int, len(items))
	var agg []AvailabilityItem
	for _, item := range items {
		if i, ok := idx[item.ProductID]; ok {
			agg[i].Quantity += item.Quantity
			continue
		}
		idx[item.ProductID] = len(agg)
		agg = append(agg, item)
	}
	return agg
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
