package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	balanceRepo := postgres.NewBalanceRepository(pool)
	transferRepo := postgres.NewStockTransferRepository(pool)
	reservationRepo := postgres.NewStockReservationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	validator := ledger.NewStockValidator(productRepo, locationRepo, balanceRepo)
	resolver := ledger.NewCostingResolver(productRepo, tenantRepo)

	sched := scheduler.New(scheduler.Config{
		MaxAttempts: cfg.Scheduler.MaxAttempts,
		Backoff:     cfg.Scheduler.Backoff,
		SweepSpec:   cfg.Scheduler.SweepSpec,
	}, log)
	defer sched.Stop()

	movementUC := ledger.NewMovementUseCase(txRunner, validator, resolver, log)
	transferUC := ledger.NewTransferUseCase(txRunner, validator, resolver, transferRepo, log)
	reservationUC := ledger.NewReservationUseCase(txRunner, validator, reservationRepo, sched, log)

	// El scheduler ejecuta la expiración de reservas; el handler se ata aquí
	// porque el caso de uso y el scheduler se necesitan mutuamente.
	sched.Bind(func(ctx context.Context, reservationID string) error {
		return reservationUC.Expire(ctx, reservationID)
	})
	if err := sched.StartSweep(reservationUC.ExpireDue); err != nil {
		log.Fatal().Err(err).Msg("arranque del barrido de expiración")
	}
	// Al arrancar, recoger reservas vencidas durante el apagado anterior.
	if err := reservationUC.ExpireDue(ctx); err != nil {
		log.Error().Err(err).Msg("barrido inicial de expiración")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		MovementUC:    movementUC,
		TransferUC:    transferUC,
		ReservationUC: reservationUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
