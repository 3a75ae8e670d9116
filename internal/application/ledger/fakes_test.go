package ledger_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia
// ──────────────────────────────────────────────────────────────────────────────

func balanceKey(tenantID, productID, locationID string) string {
	return tenantID + "|" + productID + "|" + locationID
}

type fakeBalanceRepo struct {
	rows map[string]*entity.Balance
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{rows: make(map[string]*entity.Balance)}
}

func (r *fakeBalanceRepo) Get(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	if b, ok := r.rows[balanceKey(tenantID, productID, locationID)]; ok {
		cp := *b
		return &cp, nil
	}
	// Fila en cero si no existe, igual que el adaptador real.
	return &entity.Balance{TenantID: tenantID, ProductID: productID, LocationID: locationID}, nil
}

func (r *fakeBalanceRepo) GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error) {
	return r.Get(ctx, tenantID, productID, locationID)
}

func (r *fakeBalanceRepo) GetMany(ctx context.Context, tenantID, locationID string, productIDs []string) (map[string]*entity.Balance, error) {
	out := make(map[string]*entity.Balance)
	for _, id := range productIDs {
		if b, ok := r.rows[balanceKey(tenantID, id, locationID)]; ok {
			cp := *b
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *fakeBalanceRepo) ApplyDelta(ctx context.Context, tenantID, productID, locationID string, deltaOnHand, deltaReserved int64) error {
	key := balanceKey(tenantID, productID, locationID)
	b, ok := r.rows[key]
	if !ok {
		b = &entity.Balance{TenantID: tenantID, ProductID: productID, LocationID: locationID}
		r.rows[key] = b
	}
	b.OnHandQty += deltaOnHand
	b.ReservedQty += deltaReserved
	b.UpdatedAt = time.Now()
	return nil
}

type fakeLayerRepo struct {
	layers       []entity.ValuationLayer
	consumptions []entity.LayerConsumption
}

func (r *fakeLayerRepo) Create(ctx context.Context, layer *entity.ValuationLayer) error {
	cp := *layer
	// Desempate estable como ORDER BY created_at, id: capas creadas en el mismo
	// instante conservan el orden de inserción.
	if n := len(r.layers); n > 0 && !cp.CreatedAt.After(r.layers[n-1].CreatedAt) {
		cp.CreatedAt = r.layers[n-1].CreatedAt.Add(time.Nanosecond)
	}
	r.layers = append(r.layers, cp)
	return nil
}

func (r *fakeLayerRepo) ListOpenForUpdate(ctx context.Context, tenantID, productID, locationID string) ([]entity.ValuationLayer, error) {
	var out []entity.ValuationLayer
	for _, l := range r.layers {
		if l.TenantID == tenantID && l.ProductID == productID && l.LocationID == locationID && l.RemainingQty > 0 {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLayerRepo) DecrementRemaining(ctx context.Context, layerID string, qty int64) error {
	for i := range r.layers {
		if r.layers[i].ID == layerID {
			if r.layers[i].RemainingQty < qty {
				return domain.ErrConflict
			}
			r.layers[i].RemainingQty -= qty
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeLayerRepo) CreateConsumptions(ctx context.Context, records []entity.LayerConsumption) error {
	r.consumptions = append(r.consumptions, records...)
	return nil
}

func (r *fakeLayerRepo) AvailableQuantity(ctx context.Context, tenantID, productID, locationID string) (int64, error) {
	var total int64
	for _, l := range r.layers {
		if l.TenantID == tenantID && l.ProductID == productID && l.LocationID == locationID {
			total += l.RemainingQty
		}
	}
	return total, nil
}

// layersFor capas del producto en la ubicación, en orden de creación.
func (r *fakeLayerRepo) layersFor(tenantID, productID, locationID string) []entity.ValuationLayer {
	var out []entity.ValuationLayer
	for _, l := range r.layers {
		if l.TenantID == tenantID && l.ProductID == productID && l.LocationID == locationID {
			out = append(out, l)
		}
	}
	return out
}

type fakeMovementRepo struct {
	movements []entity.StockMovement
}

func (r *fakeMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMovementRepo) ListByProduct(ctx context.Context, tenantID, productID, locationID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.TenantID == tenantID && m.ProductID == productID && m.LocationID == locationID {
			cp := m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID || p.DeletedAt != nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, id := range ids {
		if p, err := r.GetByID(ctx, tenantID, id); err == nil && p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeLocationRepo struct {
	locations map[string]*entity.Location
}

func (r *fakeLocationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error) {
	loc, ok := r.locations[id]
	if !ok || loc.TenantID != tenantID {
		return nil, nil
	}
	cp := *loc
	return &cp, nil
}

func (r *fakeLocationRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, id := range ids {
		if loc, err := r.GetByID(ctx, tenantID, id); err == nil && loc != nil {
			out = append(out, loc)
		}
	}
	return out, nil
}

type fakeTenantRepo struct {
	tenants map[string]*entity.Tenant
}

func (r *fakeTenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	if t, ok := r.tenants[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

type fakeTransferRepo struct {
	transfers map[string]*entity.StockTransfer
	numbers   map[string]bool
	// duplicateNext simula creaciones concurrentes: los próximos N Create
	// devuelven ErrDuplicate dejando el número como tomado por el competidor.
	duplicateNext int
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{
		transfers: make(map[string]*entity.StockTransfer),
		numbers:   make(map[string]bool),
	}
}

func (r *fakeTransferRepo) Create(ctx context.Context, transfer *entity.StockTransfer) error {
	key := transfer.TenantID + "|" + transfer.TransferNumber
	if r.duplicateNext > 0 {
		r.duplicateNext--
		r.numbers[key] = true
		return domain.ErrDuplicate
	}
	if r.numbers[key] {
		return domain.ErrDuplicate
	}
	r.numbers[key] = true
	cp := *transfer
	cp.Items = append([]entity.TransferItem(nil), transfer.Items...)
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *fakeTransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	t, ok := r.transfers[id]
	if !ok || t.TenantID != tenantID {
		return nil, nil
	}
	cp := *t
	cp.Items = append([]entity.TransferItem(nil), t.Items...)
	return &cp, nil
}

func (r *fakeTransferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockTransfer, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *fakeTransferRepo) MaxTransferNumber(ctx context.Context, tenantID, prefix string) (string, error) {
	max := ""
	for key := range r.numbers {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] != tenantID || !strings.HasPrefix(parts[1], prefix) {
			continue
		}
		if parts[1] > max {
			max = parts[1]
		}
	}
	return max, nil
}

func (r *fakeTransferRepo) UpdateStatus(ctx context.Context, transfer *entity.StockTransfer) error {
	t, ok := r.transfers[transfer.ID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = transfer.Status
	t.ShippedAt = transfer.ShippedAt
	t.ReceivedAt = transfer.ReceivedAt
	t.CancelledAt = transfer.CancelledAt
	return nil
}

func (r *fakeTransferRepo) UpdateItem(ctx context.Context, item *entity.TransferItem) error {
	t, ok := r.transfers[item.TransferID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range t.Items {
		if t.Items[i].ID == item.ID {
			t.Items[i] = *item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeTransferRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockTransfer, error) {
	var out []*entity.StockTransfer
	for _, t := range r.transfers {
		if t.TenantID != tenantID {
			continue
		}
		cp := *t
		cp.Items = append([]entity.TransferItem(nil), t.Items...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeReservationRepo struct {
	reservations map[string]*entity.StockReservation
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[string]*entity.StockReservation)}
}

func (r *fakeReservationRepo) Create(ctx context.Context, reservation *entity.StockReservation) error {
	cp := *reservation
	r.reservations[reservation.ID] = &cp
	return nil
}

func (r *fakeReservationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockReservation, error) {
	res, ok := r.reservations[id]
	if !ok || res.TenantID != tenantID {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *fakeReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockReservation, error) {
	if res, ok := r.reservations[id]; ok {
		cp := *res
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeReservationRepo) Update(ctx context.Context, reservation *entity.StockReservation) error {
	if _, ok := r.reservations[reservation.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *reservation
	r.reservations[reservation.ID] = &cp
	return nil
}

func (r *fakeReservationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, ok := r.reservations[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.Status = status
	res.UpdatedAt = time.Now()
	return nil
}

func (r *fakeReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]entity.StockReservation, error) {
	var out []entity.StockReservation
	for _, res := range r.reservations {
		if res.Status == entity.ReservationStatusActive && !res.ExpiresAt.After(now) {
			out = append(out, *res)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakeScheduler registra llaves programadas y canceladas.
type fakeScheduler struct {
	scheduled map[string]time.Time
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]time.Time)}
}

func (s *fakeScheduler) ScheduleOnce(key string, at time.Time) { s.scheduled[key] = at }
func (s *fakeScheduler) Cancel(key string)                     { s.cancelled = append(s.cancelled, key) }

// fakeTxRunner pasa los fakes directamente al callback; sin transaccionalidad
// real, las pruebas ejercitan la lógica de los casos de uso.
type fakeTxRunner struct {
	movements    *fakeMovementRepo
	layers       *fakeLayerRepo
	balances     *fakeBalanceRepo
	transfers    *fakeTransferRepo
	reservations *fakeReservationRepo
}

func (r *fakeTxRunner) RunMovement(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	layerRepo repository.ValuationLayerRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	return fn(r.movements, r.layers, r.balances)
}

func (r *fakeTxRunner) RunTransfer(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	layerRepo repository.ValuationLayerRepository,
	balanceRepo repository.BalanceRepository,
	transferRepo repository.StockTransferRepository,
) error) error {
	return fn(r.movements, r.layers, r.balances, r.transfers)
}

func (r *fakeTxRunner) RunReservation(ctx context.Context, fn func(
	balanceRepo repository.BalanceRepository,
	reservationRepo repository.StockReservationRepository,
) error) error {
	return fn(r.balances, r.reservations)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture con datos semilla
// ──────────────────────────────────────────────────────────────────────────────

const (
	testTenant   = "t1"
	testUser     = "u1"
	locA         = "loc-a"
	locB         = "loc-b"
	locInactive  = "loc-off"
	prodFIFO     = "p-fifo" // sin override: usa el default del tenant (FIFO)
	prodLIFO     = "p-lifo" // override LIFO
	prodAvg      = "p-avg"  // override MOVING_AVERAGE
	prodVariable = "p-var"  // SKU padre VARIABLE, sin stock directo
)

type fixture struct {
	balances     *fakeBalanceRepo
	layers       *fakeLayerRepo
	movements    *fakeMovementRepo
	transfers    *fakeTransferRepo
	reservations *fakeReservationRepo
	sched        *fakeScheduler

	validator *ledger.StockValidator
	resolver  *ledger.CostingResolver

	movementUC    *ledger.MovementUseCase
	transferUC    *ledger.TransferUseCase
	reservationUC *ledger.ReservationUseCase
}

func strPtr(s string) *string { return &s }

func newFixture() *fixture {
	f := &fixture{
		balances:     newFakeBalanceRepo(),
		layers:       &fakeLayerRepo{},
		movements:    &fakeMovementRepo{},
		transfers:    newFakeTransferRepo(),
		reservations: newFakeReservationRepo(),
		sched:        newFakeScheduler(),
	}

	products := &fakeProductRepo{products: map[string]*entity.Product{
		prodFIFO:     {ID: prodFIFO, TenantID: testTenant, SKU: "SKU-F", Name: "Fifo", Type: entity.ProductTypeSimple},
		prodLIFO:     {ID: prodLIFO, TenantID: testTenant, SKU: "SKU-L", Name: "Lifo", Type: entity.ProductTypeSimple, CostingMethod: strPtr("LIFO")},
		prodAvg:      {ID: prodAvg, TenantID: testTenant, SKU: "SKU-A", Name: "Promedio", Type: entity.ProductTypeSimple, CostingMethod: strPtr("MOVING_AVERAGE")},
		prodVariable: {ID: prodVariable, TenantID: testTenant, SKU: "SKU-V", Name: "Padre", Type: entity.ProductTypeVariable},
	}}
	locations := &fakeLocationRepo{locations: map[string]*entity.Location{
		locA:        {ID: locA, TenantID: testTenant, Name: "Bodega A", IsActive: true},
		locB:        {ID: locB, TenantID: testTenant, Name: "Bodega B", IsActive: true},
		locInactive: {ID: locInactive, TenantID: testTenant, Name: "Cerrada", IsActive: false},
	}}
	tenants := &fakeTenantRepo{tenants: map[string]*entity.Tenant{
		testTenant: {ID: testTenant, Name: "Acme"},
	}}

	tx := &fakeTxRunner{
		movements:    f.movements,
		layers:       f.layers,
		balances:     f.balances,
		transfers:    f.transfers,
		reservations: f.reservations,
	}
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	f.validator = ledger.NewStockValidator(products, locations, f.balances)
	f.resolver = ledger.NewCostingResolver(products, tenants)
	f.movementUC = ledger.NewMovementUseCase(tx, f.validator, f.resolver, log)
	f.transferUC = ledger.NewTransferUseCase(tx, f.validator, f.resolver, f.transfers, log)
	f.reservationUC = ledger.NewReservationUseCase(tx, f.validator, f.reservations, f.sched, log)
	return f
}
