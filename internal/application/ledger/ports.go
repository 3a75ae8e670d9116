package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad por operación: todo lo
// que muta la función se confirma o revierte junto, exactamente una vez.
type TxRunner interface {
	// RunMovement unidad de trabajo para entradas/salidas/ajustes.
	RunMovement(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
	) error) error

	// RunTransfer unidad de trabajo para transiciones de traslado.
	RunTransfer(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		layerRepo repository.ValuationLayerRepository,
		balanceRepo repository.BalanceRepository,
		transferRepo repository.StockTransferRepository,
	) error) error

	// RunReservation unidad de trabajo para reservas y su expiración.
	RunReservation(ctx context.Context, fn func(
		balanceRepo repository.BalanceRepository,
		reservationRepo repository.StockReservationRepository,
	) error) error
}

// Scheduler facilidad de jobs diferidos de un solo disparo, con llave única
// por entidad. Cancel es no-op si la llave no existe; reprogramar es
// Cancel + ScheduleOnce, nunca mutación en sitio.
type Scheduler interface {
	ScheduleOnce(key string, at time.Time)
	Cancel(key string)
}
