package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Handler cuerpo del job diferido; recibe la llave con la que se programó.
// Debe ser idempotente: la entrega es al-menos-una-vez.
type Handler func(ctx context.Context, key string) error

// Config parámetros de reintento del job y del barrido periódico.
type Config struct {
	MaxAttempts int           // intentos por disparo (>=1)
	Backoff     time.Duration // espera base; se duplica por intento
	SweepSpec   string        // expresión cron del barrido de respaldo (vacío = sin barrido)
}

// Timers scheduler en proceso de jobs de un solo disparo con llave única.
// ScheduleOnce reemplaza cualquier timer previo con la misma llave; Cancel es
// no-op si la llave no existe. Los timers viven en memoria: los que se pierden
// por reinicio los recoge el barrido cron de respaldo.
type Timers struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	handler Handler
	cfg     Config
	cron    *cron.Cron
	log     *logger.Logger
}

// New construye el scheduler. El handler se ata después con Bind (el caso de
// uso que lo necesita también necesita el scheduler).
func New(cfg Config, log *logger.Logger) *Timers {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Timers{
		timers: make(map[string]*time.Timer),
		cfg:    cfg,
		log:    log,
	}
}

// Bind ata el handler que ejecutan los disparos.
func (s *Timers) Bind(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// ScheduleOnce programa un disparo único en `at` para la llave. Si ya había un
// timer con esa llave se reemplaza (la reprogramación explícita es
// Cancel + ScheduleOnce, pero el reemplazo evita timers huérfanos).
func (s *Timers) ScheduleOnce(key string, at time.Time) {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() { s.fire(key) })
}

// Cancel detiene y descarta el timer de la llave; no-op si no existe.
func (s *Timers) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// fire ejecuta el handler con reintentos acotados y backoff exponencial.
// Este es el único punto del subsistema con política de reintento: corre fuera
// del ciclo request/response y nadie más puede reintentar por él.
func (s *Timers) fire(key string) {
	s.mu.Lock()
	delete(s.timers, key)
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		s.log.Error().Str("key", key).Msg("scheduler sin handler atado")
		return
	}

	backoff := s.cfg.Backoff
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := handler(context.Background(), key)
		if err == nil {
			return
		}
		if attempt == s.cfg.MaxAttempts {
			// Agotado: queda para inspección manual (y para el barrido de respaldo).
			s.log.Error().Err(err).Str("key", key).Int("attempts", attempt).
				Msg("job diferido agotó reintentos")
			return
		}
		s.log.Warn().Err(err).Str("key", key).Int("attempt", attempt).
			Dur("backoff", backoff).Msg("job diferido falló, reintentando")
		time.Sleep(backoff)
		backoff *= 2
	}
}

// StartSweep arranca el barrido periódico de respaldo (cron). El sweep
// recoge trabajo vencido cuyo timer en memoria se perdió por un reinicio.
func (s *Timers) StartSweep(sweep func(ctx context.Context) error) error {
	if s.cfg.SweepSpec == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(s.cfg.SweepSpec, func() {
		if err := sweep(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("barrido del scheduler falló")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	return nil
}

// Stop detiene el cron y todos los timers pendientes.
func (s *Timers) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
	}
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
