package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockReservationRepository puerto de persistencia para reservas (DIP).
type StockReservationRepository interface {
	Create(ctx context.Context, reservation *entity.StockReservation) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockReservation, error)
	// GetForUpdate bloquea la reserva por ID sin filtro de tenant: lo usa el
	// job de expiración, que corre fuera del ciclo request/response y solo
	// conoce la llave de la reserva. Devuelve nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.StockReservation, error)
	// Update persiste cantidad, expiración y referencias de una reserva ACTIVE.
	Update(ctx context.Context, reservation *entity.StockReservation) error
	// UpdateStatus transición terminal (RELEASED | EXPIRED).
	UpdateStatus(ctx context.Context, id, status string) error
	// ListExpired reservas ACTIVE con expires_at <= now; barrido de respaldo
	// para timers perdidos por reinicio del proceso.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]entity.StockReservation, error)
}
