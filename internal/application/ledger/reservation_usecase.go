package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ReservationUseCase retiene cantidad contra consumo futuro con expiración
// dura. Cada reserva ACTIVE tiene un job de expiración de un solo disparo
// programado con su ID como llave; release/update lo cancelan o reprograman.
type ReservationUseCase struct {
	tx           TxRunner
	validator    *StockValidator
	reservations repository.StockReservationRepository
	scheduler    Scheduler
	log          *logger.Logger
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(
	tx TxRunner,
	validator *StockValidator,
	reservations repository.StockReservationRepository,
	scheduler Scheduler,
	log *logger.Logger,
) *ReservationUseCase {
	return &ReservationUseCase{tx: tx, validator: validator, reservations: reservations, scheduler: scheduler, log: log}
}

// CreateReservationInput reserva nueva.
type CreateReservationInput struct {
	TenantID      string
	UserID        string
	ProductID     string
	LocationID    string
	Quantity      int64
	ExpiresAt     time.Time
	ReferenceType *string
	ReferenceID   *string
}

// Create valida producto, ubicación, expiración futura y disponibilidad, crea
// la reserva ACTIVE e incrementa reserved_quantity atómicamente. El job de
// expiración se programa después del commit.
func (uc *ReservationUseCase) Create(ctx context.Context, in CreateReservationInput) (*entity.StockReservation, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if !in.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("la expiración debe ser estrictamente futura: %w", domain.ErrInvalidInput)
	}
	if _, err := uc.validator.ValidateProducts(ctx, in.TenantID, []string{in.ProductID}); err != nil {
		return nil, err
	}
	if _, err := uc.validator.ValidateLocation(ctx, in.TenantID, in.LocationID); err != nil {
		return nil, err
	}

	var res *entity.StockReservation
	err := uc.tx.RunReservation(ctx, func(
		balanceRepo repository.BalanceRepository,
		reservationRepo repository.StockReservationRepository,
	) error {
		b, err := balanceRepo.GetForUpdate(ctx, in.TenantID, in.ProductID, in.LocationID)
		if err != nil {
			return err
		}
		if b.Available() < in.Quantity {
			return &domain.InsufficientStockError{
				ProductID: in.ProductID,
				OnHand:    b.OnHandQty,
				Reserved:  b.ReservedQty,
				Available: b.Available(),
				Requested: in.Quantity,
			}
		}
		now := time.Now()
		res = &entity.StockReservation{
			ID:            uuid.New().String(),
			TenantID:      in.TenantID,
			ProductID:     in.ProductID,
			LocationID:    in.LocationID,
			Quantity:      in.Quantity,
			Status:        entity.ReservationStatusActive,
			ExpiresAt:     in.ExpiresAt,
			ReferenceType: in.ReferenceType,
			ReferenceID:   in.ReferenceID,
			CreatedBy:     in.UserID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := reservationRepo.Create(ctx, res); err != nil {
			return err
		}
		return balanceRepo.ApplyDelta(ctx, in.TenantID, in.ProductID, in.LocationID, 0, in.Quantity)
	})
	if err != nil {
		return nil, err
	}

	uc.scheduler.ScheduleOnce(res.ID, res.ExpiresAt)
	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("reservation_id", res.ID).
		Str("product_id", in.ProductID).
		Int64("quantity", in.Quantity).
		Time("expires_at", in.ExpiresAt).
		Msg("reserva creada")
	return res, nil
}

// UpdateReservationInput cambios parciales sobre una reserva ACTIVE.
type UpdateReservationInput struct {
	Quantity      *int64
	ExpiresAt     *time.Time
	ReferenceType *string
	ReferenceID   *string
}

// Update ajusta cantidad y/o expiración de una reserva ACTIVE. Un aumento de
// cantidad revalida la disponibilidad incremental; una reducción no necesita
// chequeo. Si cambia la expiración, el job se reprograma (cancelar + crear).
func (uc *ReservationUseCase) Update(ctx context.Context, tenantID, reservationID string, in UpdateReservationInput) (*entity.StockReservation, error) {
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("la expiración debe ser estrictamente futura: %w", domain.ErrInvalidInput)
	}
	var updated *entity.StockReservation
	rescheduled := false
	err := uc.tx.RunReservation(ctx, func(
		balanceRepo repository.BalanceRepository,
		reservationRepo repository.StockReservationRepository,
	) error {
		res, err := reservationRepo.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil || res.TenantID != tenantID {
			return fmt.Errorf("reserva %s: %w", reservationID, domain.ErrNotFound)
		}
		if res.Status != entity.ReservationStatusActive {
			return &domain.TransitionError{Entity: "reservation", ID: res.ID, From: res.Status, To: entity.ReservationStatusActive}
		}

		if in.Quantity != nil && *in.Quantity != res.Quantity {
			if *in.Quantity <= 0 {
				return domain.ErrInvalidInput
			}
			delta := *in.Quantity - res.Quantity
			if delta > 0 {
				b, err := balanceRepo.GetForUpdate(ctx, res.TenantID, res.ProductID, res.LocationID)
				if err != nil {
					return err
				}
				if b.Available() < delta {
					return &domain.InsufficientStockError{
						ProductID: res.ProductID,
						OnHand:    b.OnHandQty,
						Reserved:  b.ReservedQty,
						Available: b.Available(),
						Requested: delta,
					}
				}
			}
			if err := balanceRepo.ApplyDelta(ctx, res.TenantID, res.ProductID, res.LocationID, 0, delta); err != nil {
				return err
			}
			res.Quantity = *in.Quantity
		}
		if in.ExpiresAt != nil && !in.ExpiresAt.Equal(res.ExpiresAt) {
			res.ExpiresAt = *in.ExpiresAt
			rescheduled = true
		}
		if in.ReferenceType != nil {
			res.ReferenceType = in.ReferenceType
		}
		if in.ReferenceID != nil {
			res.ReferenceID = in.ReferenceID
		}
		res.UpdatedAt = time.Now()
		if err := reservationRepo.Update(ctx, res); err != nil {
			return err
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rescheduled {
		uc.scheduler.Cancel(updated.ID)
		uc.scheduler.ScheduleOnce(updated.ID, updated.ExpiresAt)
	}
	return updated, nil
}

// Release libera una reserva ACTIVE: estado RELEASED, decrementa
// reserved_quantity y cancela el job (no-op si ya no existe).
func (uc *ReservationUseCase) Release(ctx context.Context, tenantID, reservationID string) error {
	err := uc.tx.RunReservation(ctx, func(
		balanceRepo repository.BalanceRepository,
		reservationRepo repository.StockReservationRepository,
	) error {
		res, err := reservationRepo.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil || res.TenantID != tenantID {
			return fmt.Errorf("reserva %s: %w", reservationID, domain.ErrNotFound)
		}
		if res.Status != entity.ReservationStatusActive {
			return &domain.TransitionError{Entity: "reservation", ID: res.ID, From: res.Status, To: entity.ReservationStatusReleased}
		}
		if err := reservationRepo.UpdateStatus(ctx, res.ID, entity.ReservationStatusReleased); err != nil {
			return err
		}
		return balanceRepo.ApplyDelta(ctx, res.TenantID, res.ProductID, res.LocationID, 0, -res.Quantity)
	})
	if err != nil {
		return err
	}
	uc.scheduler.Cancel(reservationID)
	uc.log.Info().Str("tenant_id", tenantID).Str("reservation_id", reservationID).Msg("reserva liberada")
	return nil
}

// Expire cuerpo del job de expiración. Semántica al-menos-una-vez: tolera
// redisparos y disparos tardíos. Si la reserva no existe o ya no está ACTIVE
// es no-op; si la expiración quedó en el futuro (reloj desfasado o reserva
// reprogramada) se salta sin marcar error.
func (uc *ReservationUseCase) Expire(ctx context.Context, reservationID string) error {
	return uc.tx.RunReservation(ctx, func(
		balanceRepo repository.BalanceRepository,
		reservationRepo repository.StockReservationRepository,
	) error {
		res, err := reservationRepo.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil || res.Status != entity.ReservationStatusActive {
			// Ya resuelta por otro camino (release o expiración previa).
			return nil
		}
		if res.ExpiresAt.After(time.Now()) {
			uc.log.Debug().Str("reservation_id", reservationID).Time("expires_at", res.ExpiresAt).
				Msg("expiración aún futura, se omite el disparo")
			return nil
		}
		if err := reservationRepo.UpdateStatus(ctx, res.ID, entity.ReservationStatusExpired); err != nil {
			return err
		}
		if err := balanceRepo.ApplyDelta(ctx, res.TenantID, res.ProductID, res.LocationID, 0, -res.Quantity); err != nil {
			return err
		}
		uc.log.Info().
			Str("tenant_id", res.TenantID).
			Str("reservation_id", res.ID).
			Int64("quantity", res.Quantity).
			Msg("reserva expirada")
		return nil
	})
}

// ExpireDue barrido de respaldo: expira reservas ACTIVE vencidas cuyo timer se
// perdió (reinicio del proceso, disparo no entregado). Seguro de repetir.
func (uc *ReservationUseCase) ExpireDue(ctx context.Context) error {
	due, err := uc.reservations.ListExpired(ctx, time.Now(), 100)
	if err != nil {
		return err
	}
	for _, res := range due {
		if err := uc.Expire(ctx, res.ID); err != nil {
			uc.log.Error().Err(err).Str("reservation_id", res.ID).Msg("barrido de expiración falló")
			continue
		}
		uc.scheduler.Cancel(res.ID)
	}
	return nil
}

// Get lectura de una reserva del tenant.
func (uc *ReservationUseCase) Get(ctx context.Context, tenantID, reservationID string) (*entity.StockReservation, error) {
	res, err := uc.reservations.GetByID(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("reserva %s: %w", reservationID, domain.ErrNotFound)
	}
	return res, nil
}
