package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementUC    *ledger.MovementUseCase
	TransferUC    *ledger.TransferUseCase
	ReservationUC *ledger.ReservationUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1", ContextMiddleware())

	// Movimientos de stock
	stock := api.Group("/stock")
	movementHandler := NewMovementHandler(deps.MovementUC)
	stock.Post("/in", movementHandler.StockIn)
	stock.Post("/out", movementHandler.StockOut)
	stock.Post("/adjust", movementHandler.Adjust)

	// Traslados entre ubicaciones
	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/ship", transferHandler.Ship)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Reservas de stock
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Post("/", reservationHandler.Create)
	reservations.Get("/:id", reservationHandler.GetByID)
	reservations.Patch("/:id", reservationHandler.Update)
	reservations.Post("/:id/release", reservationHandler.Release)
}
