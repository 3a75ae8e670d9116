package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/costing"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementUseCase registra entradas, salidas y ajustes del libro mayor de
// inventario, cada operación dentro de una sola unidad de trabajo transaccional
// (validador → motor de valuación → saldo). Los reintentos crean movimientos
// nuevos: la deduplicación es del caller vía ReferenceID.
type MovementUseCase struct {
	tx        TxRunner
	validator *StockValidator
	resolver  *CostingResolver
	log       *logger.Logger
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(tx TxRunner, validator *StockValidator, resolver *CostingResolver, log *logger.Logger) *MovementUseCase {
	return &MovementUseCase{tx: tx, validator: validator, resolver: resolver, log: log}
}

// StockInItem línea de entrada.
type StockInItem struct {
	ProductID string
	Quantity  int64
	UnitCost  decimal.Decimal
	BatchID   *string
}

// StockInInput entrada de stock en una ubicación.
type StockInInput struct {
	TenantID      string
	UserID        string
	LocationID    string
	Items         []StockInItem
	ReferenceType entity.ReferenceType
	ReferenceID   *string
	Note          string
}

// StockInResult resultado de la entrada.
type StockInResult struct {
	MovementIDs   []string
	TotalQuantity int64
}

// StockIn valida productos y ubicación y, por cada línea, crea el movimiento
// IN, su capa de valuación y el incremento de saldo, todo en una transacción.
func (uc *MovementUseCase) StockIn(ctx context.Context, in StockInInput) (*StockInResult, error) {
	if len(in.Items) == 0 || !in.ReferenceType.Valid() {
		return nil, domain.ErrInvalidInput
	}
	productIDs := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 || item.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		productIDs = append(productIDs, item.ProductID)
	}
	if _, err := uc.validator.ValidateProducts(ctx, in.TenantID, productIDs); err != nil {
		return nil, err
	}
	if _, err := uc.validator.ValidateLocation(ctx, in.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	now := time.Now()
	res := &StockInResult{}
	err := uc.tx.RunMovement(ctx, func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		for _, item := range in.Items {
			mov, err := createInMovement(ctx, movRepo, layerRepo, balanceRepo, inMovementParams{
				tenantID:      in.TenantID,
				productID:     item.ProductID,
				locationID:    in.LocationID,
				quantity:      item.Quantity,
				unitCost:      item.UnitCost,
				referenceType: in.ReferenceType,
				referenceID:   in.ReferenceID,
				note:          in.Note,
				batchID:       item.BatchID,
				userID:        in.UserID,
				now:           now,
			})
			if err != nil {
				return err
			}
			res.MovementIDs = append(res.MovementIDs, mov.ID)
			res.TotalQuantity += item.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("location_id", in.LocationID).
		Int64("total_quantity", res.TotalQuantity).
		Int("items", len(in.Items)).
		Msg("entrada de stock registrada")
	return res, nil
}

// StockOutItem línea de salida.
type StockOutItem struct {
	ProductID string
	Quantity  int64
}

// StockOutInput salida de stock desde una ubicación.
type StockOutInput struct {
	TenantID      string
	UserID        string
	LocationID    string
	Items         []StockOutItem
	ReferenceType entity.ReferenceType
	ReferenceID   *string
	Note          string
}

// StockOutResult resultado de la salida, con el costo total consumido.
type StockOutResult struct {
	MovementIDs   []string
	TotalQuantity int64
	TotalCost     decimal.Decimal
}

// StockOut valida productos, ubicación y disponibilidad, y por cada línea
// consume capas según el método de valuación resuelto, registra el movimiento
// OUT con su auditoría de consumo y decrementa el saldo.
//
// Las líneas se procesan secuencialmente dentro de la transacción: si dos
// líneas comparten producto, la disponibilidad de la segunda depende del
// consumo de la primera.
func (uc *MovementUseCase) StockOut(ctx context.Context, in StockOutInput) (*StockOutResult, error) {
	if len(in.Items) == 0 || !in.ReferenceType.Valid() {
		return nil, domain.ErrInvalidInput
	}
	productIDs := make([]string, 0, len(in.Items))
	demand := make([]AvailabilityItem, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		productIDs = append(productIDs, item.ProductID)
		demand = append(demand, AvailabilityItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if _, err := uc.validator.ValidateProducts(ctx, in.TenantID, productIDs); err != nil {
		return nil, err
	}
	if _, err := uc.validator.ValidateLocation(ctx, in.TenantID, in.LocationID); err != nil {
		return nil, err
	}
	if err := uc.validator.ValidateStockAvailability(ctx, in.TenantID, in.LocationID, demand); err != nil {
		return nil, err
	}

	now := time.Now()
	res := &StockOutResult{TotalCost: decimal.Zero}
	err := uc.tx.RunMovement(ctx, func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		for _, item := range in.Items {
			method := uc.resolver.Resolve(ctx, in.TenantID, item.ProductID)
			mov, err := createOutMovement(ctx, movRepo, layerRepo, balanceRepo, outMovementParams{
				tenantID:      in.TenantID,
				productID:     item.ProductID,
				locationID:    in.LocationID,
				quantity:      item.Quantity,
				method:        method,
				referenceType: in.ReferenceType,
				referenceID:   in.ReferenceID,
				note:          in.Note,
				userID:        in.UserID,
				now:           now,
			})
			if err != nil {
				return err
			}
			res.MovementIDs = append(res.MovementIDs, mov.ID)
			res.TotalQuantity += item.Quantity
			res.TotalCost = res.TotalCost.Add(mov.TotalCost)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("location_id", in.LocationID).
		Int64("total_quantity", res.TotalQuantity).
		Str("total_cost", res.TotalCost.String()).
		Msg("salida de stock registrada")
	return res, nil
}

// AdjustItem línea de ajuste; la cantidad lleva signo (positiva entra, negativa sale).
type AdjustItem struct {
	ProductID string
	Quantity  int64
	UnitCost  *decimal.Decimal // solo relevante para ajustes positivos; nil = 0
}

// AdjustInput ajuste de inventario con razón obligatoria.
type AdjustInput struct {
	TenantID   string
	UserID     string
	LocationID string
	Items      []AdjustItem
	Reason     string
	Note       string
}

// AdjustResult resultado del ajuste.
type AdjustResult struct {
	MovementIDs         []string
	PositiveAdjustments int
	NegativeAdjustments int
}

// Adjust trata cantidades positivas como entrada (crea capa) y negativas como
// salida (consume capas). La disponibilidad se pre-valida solo para el
// subconjunto negativo, sumando cantidades absolutas por producto.
func (uc *MovementUseCase) Adjust(ctx context.Context, in AdjustInput) (*AdjustResult, error) {
	if len(in.Items) == 0 || in.Reason == "" {
		return nil, domain.ErrInvalidInput
	}
	productIDs := make([]string, 0, len(in.Items))
	var negatives []AvailabilityItem
	for _, item := range in.Items {
		if item.Quantity == 0 {
			return nil, domain.ErrInvalidInput
		}
		productIDs = append(productIDs, item.ProductID)
		if item.Quantity < 0 {
			negatives = append(negatives, AvailabilityItem{ProductID: item.ProductID, Quantity: -item.Quantity})
		}
	}
	if _, err := uc.validator.ValidateProducts(ctx, in.TenantID, productIDs); err != nil {
		return nil, err
	}
	if _, err := uc.validator.ValidateLocation(ctx, in.TenantID, in.LocationID); err != nil {
		return nil, err
	}
	if len(negatives) > 0 {
		if err := uc.validator.ValidateStockAvailability(ctx, in.TenantID, in.LocationID, negatives); err != nil {
			return nil, err
		}
	}

	note := in.Reason
	if in.Note != "" {
		note = in.Reason + " - " + in.Note
	}
	now := time.Now()
	res := &AdjustResult{}
	err := uc.tx.RunMovement(ctx, func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		for _, item := range in.Items {
			if item.Quantity > 0 {
				unitCost := decimal.Zero
				if item.UnitCost != nil {
					unitCost = *item.UnitCost
				}
				mov, err := createInMovement(ctx, movRepo, layerRepo, balanceRepo, inMovementParams{
					tenantID:      in.TenantID,
					productID:     item.ProductID,
					locationID:    in.LocationID,
					quantity:      item.Quantity,
					unitCost:      unitCost,
					referenceType: entity.ReferenceAdjustment,
					note:          note,
					userID:        in.UserID,
					now:           now,
				})
				if err != nil {
					return err
				}
				res.MovementIDs = append(res.MovementIDs, mov.ID)
				res.PositiveAdjustments++
				continue
			}
			method := uc.resolver.Resolve(ctx, in.TenantID, item.ProductID)
			mov, err := createOutMovement(ctx, movRepo, layerRepo, balanceRepo, outMovementParams{
				tenantID:      in.TenantID,
				productID:     item.ProductID,
				locationID:    in.LocationID,
				quantity:      -item.Quantity,
				method:        method,
				referenceType: entity.ReferenceAdjustment,
				note:          note,
				userID:        in.UserID,
				now:           now,
			})
			if err != nil {
				return err
			}
			res.MovementIDs = append(res.MovementIDs, mov.ID)
			res.NegativeAdjustments++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("location_id", in.LocationID).
		Str("reason", in.Reason).
		Int("positive", res.PositiveAdjustments).
		Int("negative", res.NegativeAdjustments).
		Msg("ajuste de inventario registrado")
	return res, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Primitivas compartidas (también las usa el servicio de traslados)
// ──────────────────────────────────────────────────────────────────────────────

type inMovementParams struct {
	tenantID      string
	productID     string
	locationID    string
	quantity      int64
	unitCost      decimal.Decimal
	referenceType entity.ReferenceType
	referenceID   *string
	note          string
	batchID       *string
	userID        string
	now           time.Time
}

// createInMovement asiento IN + capa de valuación + incremento de saldo.
func createInMovement(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	layerRepo repository.ValuationLayerRepository,
	balanceRepo repository.BalanceRepository,
	p inMovementParams,
) (*entity.StockMovement, error) {
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		TenantID:      p.tenantID,
		ProductID:     p.productID,
		LocationID:    p.locationID,
		Type:          entity.MovementTypeIN,
		Quantity:      p.quantity,
		UnitCost:      p.unitCost,
		TotalCost:     p.unitCost.Mul(decimal.NewFromInt(p.quantity)).Round(costing.Scale),
		ReferenceType: p.referenceType,
		ReferenceID:   p.referenceID,
		Note:          p.note,
		CreatedBy:     p.userID,
		CreatedAt:     p.now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	layer := &entity.ValuationLayer{
		ID:               uuid.New().String(),
		TenantID:         p.tenantID,
		ProductID:        p.productID,
		LocationID:       p.locationID,
		OriginalQty:      p.quantity,
		RemainingQty:     p.quantity,
		UnitCost:         p.unitCost,
		SourceMovementID: mov.ID,
		BatchID:          p.batchID,
		CreatedAt:        p.now,
	}
	if err := layerRepo.Create(ctx, layer); err != nil {
		return nil, err
	}
	if err := balanceRepo.ApplyDelta(ctx, p.tenantID, p.productID, p.locationID, p.quantity, 0); err != nil {
		return nil, err
	}
	return mov, nil
}

type outMovementParams struct {
	tenantID      string
	productID     string
	locationID    string
	quantity      int64
	method        costing.Method
	referenceType entity.ReferenceType
	referenceID   *string
	note          string
	userID        string
	now           time.Time
}

// createOutMovement consume capas según el método, registra el asiento OUT con
// su auditoría de consumo y decrementa el saldo. El costo unitario se deriva
// del total consumido (0 si no se consumió nada).
func createOutMovement(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	layerRepo repository.ValuationLayerRepository,
	balanceRepo repository.BalanceRepository,
	p outMovementParams,
) (*entity.StockMovement, error) {
	layers, err := layerRepo.ListOpenForUpdate(ctx, p.tenantID, p.productID, p.locationID)
	if err != nil {
		return nil, err
	}
	plan := costing.Plan(layers, p.quantity, p.method)

	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		TenantID:      p.tenantID,
		ProductID:     p.productID,
		LocationID:    p.locationID,
		Type:          entity.MovementTypeOUT,
		Quantity:      p.quantity,
		UnitCost:      costing.UnitCost(plan.TotalCost, p.quantity),
		TotalCost:     plan.TotalCost,
		ReferenceType: p.referenceType,
		ReferenceID:   p.referenceID,
		Note:          p.note,
		CreatedBy:     p.userID,
		CreatedAt:     p.now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	records := make([]entity.LayerConsumption, 0, len(plan.Slices))
	for _, slice := range plan.Slices {
		if err := layerRepo.DecrementRemaining(ctx, slice.LayerID, slice.Quantity); err != nil {
			return nil, err
		}
		records = append(records, entity.LayerConsumption{
			ID:         uuid.New().String(),
			LayerID:    slice.LayerID,
			MovementID: mov.ID,
			Quantity:   slice.Quantity,
			UnitCost:   slice.UnitCost,
			CreatedAt:  p.now,
		})
	}
	if len(records) > 0 {
		if err := layerRepo.CreateConsumptions(ctx, records); err != nil {
			return nil, err
		}
	}
	if err := balanceRepo.ApplyDelta(ctx, p.tenantID, p.productID, p.locationID, -p.quantity, 0); err != nil {
		return nil, err
	}
	return mov, nil
}
