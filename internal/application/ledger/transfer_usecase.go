package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/costing"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// transferNumberAttempts reintentos ante colisión del constraint único de
// numeración bajo creaciones concurrentes en el mismo tenant.
const transferNumberAttempts = 5

// TransferUseCase máquina de estados de traslados entre ubicaciones:
// create → ship → {receive, cancel}. Cada transición corre en su propia
// transacción con la cabecera del traslado bloqueada (FOR UPDATE), de modo que
// ship/receive/cancel concurrentes sobre el mismo ID quedan serializados.
type TransferUseCase struct {
	tx        TxRunner
	validator *StockValidator
	resolver  *CostingResolver
	transfers repository.StockTransferRepository
	log       *logger.Logger
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	tx TxRunner,
	validator *StockValidator,
	resolver *CostingResolver,
	transfers repository.StockTransferRepository,
	log *logger.Logger,
) *TransferUseCase {
	return &TransferUseCase{tx: tx, validator: validator, resolver: resolver, transfers: transfers, log: log}
}

// CreateTransferItem línea solicitada del traslado.
type CreateTransferItem struct {
	ProductID string
	Quantity  int64
}

// CreateTransferInput creación de un traslado en DRAFT; con ShipImmediately el
// despacho se encadena dentro de la misma transacción.
type CreateTransferInput struct {
	TenantID        string
	UserID          string
	FromLocationID  string
	ToLocationID    string
	Note            string
	Items           []CreateTransferItem
	ShipImmediately bool
}

// Create valida endpoints y productos, asigna el número secuencial
// TRF-<año>-NNNN y persiste el traslado. La numeración escanea el mayor número
// existente con el prefijo del año y reintenta sobre el constraint único
// (tenant_id, transfer_number) si otra creación concurrente ganó el número.
func (uc *TransferUseCase) Create(ctx context.Context, in CreateTransferInput) (*entity.StockTransfer, error) {
	if in.FromLocationID == in.ToLocationID {
		return nil, fmt.Errorf("origen y destino no pueden ser la misma ubicación: %w", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	productIDs := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		productIDs = append(productIDs, item.ProductID)
	}
	if _, err := uc.validator.ValidateProducts(ctx, in.TenantID, productIDs); err != nil {
		return nil, err
	}
	if err := uc.validator.ValidateLocations(ctx, in.TenantID, in.FromLocationID, in.ToLocationID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < transferNumberAttempts; attempt++ {
		var created *entity.StockTransfer
		err := uc.tx.RunTransfer(ctx, func(
			movRepo repository.StockMovementRepository,
			layerRepo repository.ValuationLayerRepository,
			balanceRepo repository.BalanceRepository,
			transferRepo repository.StockTransferRepository,
		) error {
			now := time.Now()
			number, err := nextTransferNumber(ctx, transferRepo, in.TenantID, now)
			if err != nil {
				return err
			}
			t := &entity.StockTransfer{
				ID:             uuid.New().String(),
				TenantID:       in.TenantID,
				TransferNumber: number,
				FromLocationID: in.FromLocationID,
				ToLocationID:   in.ToLocationID,
				Status:         entity.TransferStatusDraft,
				Note:           in.Note,
				CreatedBy:      in.UserID,
				CreatedAt:      now,
			}
			for _, item := range in.Items {
				t.Items = append(t.Items, entity.TransferItem{
					ID:           uuid.New().String(),
					TransferID:   t.ID,
					ProductID:    item.ProductID,
					RequestedQty: item.Quantity,
				})
			}
			if err := transferRepo.Create(ctx, t); err != nil {
				return err
			}
			if in.ShipImmediately {
				if err := uc.shipLocked(ctx, movRepo, layerRepo, balanceRepo, transferRepo, t, in.UserID, now); err != nil {
					return err
				}
			}
			created = t
			return nil
		})
		if err == nil {
			uc.log.Info().
				Str("tenant_id", in.TenantID).
				Str("transfer_id", created.ID).
				Str("transfer_number", created.TransferNumber).
				Bool("shipped", in.ShipImmediately).
				Msg("traslado creado")
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		// Otro create del mismo tenant ganó el número: recalcular y reintentar.
	}
	return nil, fmt.Errorf("numeración de traslado agotó reintentos: %w", domain.ErrConflict)
}

// Ship despacha un traslado DRAFT: captura el costo de envío, consume capas en
// origen y transiciona a IN_TRANSIT.
func (uc *TransferUseCase) Ship(ctx context.Context, tenantID, userID, transferID string) error {
	return uc.tx.RunTransfer(ctx, func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
		transferRepo repository.StockTransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, tenantID, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("traslado %s: %w", transferID, domain.ErrNotFound)
		}
		return uc.shipLocked(ctx, movRepo, layerRepo, balanceRepo, transferRepo, t, userID, time.Now())
	})
}

// shipLocked lógica de despacho con la cabecera ya bloqueada.
//
// El WAC en origen se captura en ShippedUnitCost y queda como única fuente de
// verdad para receive/cancel: el saldo de origen puede cambiar después y el
// costo NO se recalcula. El consumo de capas sigue el método de valuación
// resuelto para el producto.
func (uc *TransferUseCase) shipLocked(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	layerRepo repository.ValuationLayerRepository,
	balanceRepo repository.BalanceRepository,
	transferRepo repository.StockTransferRepository,
	t *entity.StockTransfer,
	userID string,
	now time.Time,
) error {
	if t.Status != entity.TransferStatusDraft {
		return &domain.TransitionError{Entity: "transfer", ID: t.ID, From: t.Status, To: entity.TransferStatusInTransit}
	}

	// Disponibilidad contra el origen, leída dentro de esta misma transacción.
	demand := make([]AvailabilityItem, 0, len(t.Items))
	ids := make([]string, 0, len(t.Items))
	for _, item := range t.Items {
		demand = append(demand, AvailabilityItem{ProductID: item.ProductID, Quantity: item.RequestedQty})
		ids = append(ids, item.ProductID)
	}
	balances, err := balanceRepo.GetMany(ctx, t.TenantID, t.FromLocationID, ids)
	if err != nil {
		return err
	}
	if err := CheckAvailability(balances, aggregateDemand(demand)); err != nil {
		return err
	}

	for i := range t.Items {
		item := &t.Items[i]
		layers, err := layerRepo.ListOpenForUpdate(ctx, t.TenantID, item.ProductID, t.FromLocationID)
		if err != nil {
			return err
		}
		wac := costing.WAC(layers)
		method := uc.resolver.Resolve(ctx, t.TenantID, item.ProductID)
		plan := costing.Plan(layers, item.RequestedQty, method)

		mov := &entity.StockMovement{
			ID:            uuid.New().String(),
			TenantID:      t.TenantID,
			ProductID:     item.ProductID,
			LocationID:    t.FromLocationID,
			Type:          entity.MovementTypeOUT,
			Quantity:      item.RequestedQty,
			UnitCost:      costing.UnitCost(plan.TotalCost, item.RequestedQty),
			TotalCost:     plan.TotalCost,
			ReferenceType: entity.ReferenceTransfer,
			ReferenceID:   &t.ID,
			Note:          t.Note,
			CreatedBy:     userID,
			CreatedAt:     now,
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		records := make([]entity.LayerConsumption, 0, len(plan.Slices))
		for _, slice := range plan.Slices {
			if err := layerRepo.DecrementRemaining(ctx, slice.LayerID, slice.Quantity); err != nil {
				return err
			}
			records = append(records, entity.LayerConsumption{
				ID:         uuid.New().String(),
				LayerID:    slice.LayerID,
				MovementID: mov.ID,
				Quantity:   slice.Quantity,
				UnitCost:   slice.UnitCost,
				CreatedAt:  now,
			})
		}
		if len(records) > 0 {
			if err := layerRepo.CreateConsumptions(ctx, records); err != nil {
				return err
			}
		}
		if err := balanceRepo.ApplyDelta(ctx, t.TenantID, item.ProductID, t.FromLocationID, -item.RequestedQty, 0); err != nil {
			return err
		}

		item.ShippedQty = item.RequestedQty
		item.ShippedUnitCost = wac
		if err := transferRepo.UpdateItem(ctx, item); err != nil {
			return err
		}
	}

	t.Status = entity.TransferStatusInTransit
	t.ShippedAt = &now
	return transferRepo.UpdateStatus(ctx, t)
}

// ReceiveItemInput cantidad confirmada en destino por producto.
type ReceiveItemInput struct {
	ProductID        string
	ReceivedQuantity int64
	ShortageReason   *string
}

// Receive confirma la recepción de un traslado IN_TRANSIT. Todo faltante
// (enviado - recibido > 0) exige razón no vacía. Las unidades recibidas entran
// en destino al ShippedUnitCost almacenado; el faltante se pierde del libro
// mayor (no se genera ajuste automático) y se deja registro en el log.
func (uc *TransferUseCase) Receive(ctx context.Context, tenantID, userID, transferID string, items []ReceiveItemInput) error {
	byProduct := make(map[string]ReceiveItemInput, len(items))
	for _, item := range items {
		byProduct[item.ProductID] = item
	}
	return uc.tx.RunTransfer(ctx, func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
		transferRepo repository.StockTransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, tenantID, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("traslado %s: %w", transferID, domain.ErrNotFound)
		}
		if t.Status != entity.TransferStatusInTransit {
			return &domain.TransitionError{Entity: "transfer", ID: t.ID, From: t.Status, To: entity.TransferStatusCompleted}
		}

		now := time.Now()
		for i := range t.Items {
			item := &t.Items[i]
			rcv, ok := byProduct[item.ProductID]
			if !ok {
				return fmt.Errorf("falta la cantidad recibida del producto %s: %w", item.ProductID, domain.ErrInvalidInput)
			}
			if rcv.ReceivedQuantity < 0 || rcv.ReceivedQuantity > item.ShippedQty {
				return fmt.Errorf("cantidad recibida %d fuera de rango para producto %s (enviado=%d): %w",
					rcv.ReceivedQuantity, item.ProductID, item.ShippedQty, domain.ErrInvalidInput)
			}
			shortage := item.ShippedQty - rcv.ReceivedQuantity
			if shortage > 0 && (rcv.ShortageReason == nil || strings.TrimSpace(*rcv.ShortageReason) == "") {
				return &domain.ShortageReasonError{
					ProductID: item.ProductID,
					Shipped:   item.ShippedQty,
					Received:  rcv.ReceivedQuantity,
				}
			}

			if rcv.ReceivedQuantity > 0 {
				if _, err := createInMovement(ctx, movRepo, layerRepo, balanceRepo, inMovementParams{
					tenantID:      t.TenantID,
					productID:     item.ProductID,
					locationID:    t.ToLocationID,
					quantity:      rcv.ReceivedQuantity,
					unitCost:      item.ShippedUnitCost,
					referenceType: entity.ReferenceTransfer,
					referenceID:   &t.ID,
					note:          t.Note,
					userID:        userID,
					now:           now,
				}); err != nil {
					return err
				}
			}

			item.ReceivedQty = rcv.ReceivedQuantity
			item.ShortageReason = rcv.ShortageReason
			if err := transferRepo.UpdateItem(ctx, item); err != nil {
				return err
			}
			if shortage > 0 {
				reason := ""
				if rcv.ShortageReason != nil {
					reason = *rcv.ShortageReason
				}
				// Faltante descartado del mayor: queda observable solo aquí.
				uc.log.Warn().
					Str("tenant_id", t.TenantID).
					Str("transfer_id", t.ID).
					Str("product_id", item.ProductID).
					Int64("shipped", item.ShippedQty).
					Int64("received", rcv.ReceivedQuantity).
					Int64("shortage", shortage).
					Str("reason", reason).
					Msg("faltante en recepción de traslado")
			}
		}

		t.Status = entity.TransferStatusCompleted
		t.ReceivedAt = &now
		return transferRepo.UpdateStatus(ctx, t)
	})
}

// Cancel cancela un traslado DRAFT (solo cambia estado) o IN_TRANSIT
// (revierte el despacho: por cada línea enviada crea un movimiento IN en
// origen al ShippedUnitCost, con capa nueva — se restituye cantidad y costo
// equivalentes, no la identidad de las capas originalmente consumidas).
func (uc *TransferUseCase) Cancel(ctx context.Context, tenantID, userID, transferID string) error {
	return uc.tx.RunTransfer(ctx, func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
		transferRepo repository.StockTransferRepository,
	) error {
		t, err := transferRepo.GetForUpdate(ctx, tenantID, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("traslado %s: %w", transferID, domain.ErrNotFound)
		}

		now := time.Now()
		switch t.Status {
		case entity.TransferStatusDraft:
			// Nada se movió todavía.
		case entity.TransferStatusInTransit:
			for i := range t.Items {
				item := &t.Items[i]
				if item.ShippedQty <= 0 {
					continue
				}
				if _, err := createInMovement(ctx, movRepo, layerRepo, balanceRepo, inMovementParams{
					tenantID:      t.TenantID,
					productID:     item.ProductID,
					locationID:    t.FromLocationID,
					quantity:      item.ShippedQty,
					unitCost:      item.ShippedUnitCost,
					referenceType: entity.ReferenceTransfer,
					referenceID:   &t.ID,
					note:          t.Note,
					userID:        userID,
					now:           now,
				}); err != nil {
					return err
				}
			}
		default:
			return &domain.TransitionError{Entity: "transfer", ID: t.ID, From: t.Status, To: entity.TransferStatusCancelled}
		}

		t.Status = entity.TransferStatusCancelled
		t.CancelledAt = &now
		if err := transferRepo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		uc.log.Info().
			Str("tenant_id", t.TenantID).
			Str("transfer_id", t.ID).
			Str("transfer_number", t.TransferNumber).
			Msg("traslado cancelado")
		return nil
	})
}

// Get lectura de un traslado con sus líneas.
func (uc *TransferUseCase) Get(ctx context.Context, tenantID, transferID string) (*entity.StockTransfer, error) {
	t, err := uc.transfers.GetByID(ctx, tenantID, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("traslado %s: %w", transferID, domain.ErrNotFound)
	}
	return t, nil
}

// List traslados del tenant, más recientes primero.
func (uc *TransferUseCase) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockTransfer, error) {
	return uc.transfers.List(ctx, tenantID, limit, offset)
}

// nextTransferNumber siguiente TRF-<año>-NNNN: toma el mayor número existente
// con el prefijo del año (orden lexicográfico, el sufijo es de ancho fijo) y
// lo incrementa. El constraint único absorbe la carrera entre creaciones.
func nextTransferNumber(ctx context.Context, transferRepo repository.StockTransferRepository, tenantID string, now time.Time) (string, error) {
	prefix := fmt.Sprintf("TRF-%d-", now.Year())
	max, err := transferRepo.MaxTransferNumber(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if max != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(max, prefix)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}
