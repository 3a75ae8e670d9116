package costing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/costing"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var base = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

// layer construye una capa de prueba; offset desplaza CreatedAt en minutos
// para fijar el orden FIFO/LIFO.
func layer(id string, remaining int64, cost string, offset int) entity.ValuationLayer {
	return entity.ValuationLayer{
		ID:           id,
		TenantID:     "t1",
		ProductID:    "p1",
		LocationID:   "loc1",
		OriginalQty:  remaining,
		RemainingQty: remaining,
		UnitCost:     decimal.RequireFromString(cost),
		CreatedAt:    base.Add(time.Duration(offset) * time.Minute),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ParseMethod
// ──────────────────────────────────────────────────────────────────────────────

func TestParseMethod_DesconocidoCaeAFIFO(t *testing.T) {
	assert.Equal(t, costing.FIFO, costing.ParseMethod(""))
	assert.Equal(t, costing.FIFO, costing.ParseMethod("AVERAGE"))
	assert.Equal(t, costing.LIFO, costing.ParseMethod("LIFO"))
	assert.Equal(t, costing.MovingAverage, costing.ParseMethod("MOVING_AVERAGE"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan — FIFO / LIFO
// ──────────────────────────────────────────────────────────────────────────────

// FIFO debe agotar siempre la capa más antigua antes de tocar una más nueva.
func TestPlan_FIFOAgotaLaCapaMasAntiguaPrimero(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l2", 50, "12.0000", 10), // más nueva
		layer("l1", 100, "10.0000", 0), // más antigua
	}

	plan := costing.Plan(layers, 120, costing.FIFO)

	require.Len(t, plan.Slices, 2)
	assert.Equal(t, "l1", plan.Slices[0].LayerID)
	assert.Equal(t, int64(100), plan.Slices[0].Quantity)
	assert.Equal(t, "l2", plan.Slices[1].LayerID)
	assert.Equal(t, int64(20), plan.Slices[1].Quantity)
	assert.Equal(t, int64(120), plan.Consumed)
	// 100*10 + 20*12 = 1240
	assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("1240.0000")),
		"total esperado 1240.0000, obtenido %s", plan.TotalCost)
}

func TestPlan_LIFOConsumeLaCapaMasNuevaPrimero(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l1", 100, "10.0000", 0),
		layer("l2", 50, "12.0000", 10),
	}

	plan := costing.Plan(layers, 60, costing.LIFO)

	require.Len(t, plan.Slices, 2)
	assert.Equal(t, "l2", plan.Slices[0].LayerID)
	assert.Equal(t, int64(50), plan.Slices[0].Quantity)
	assert.Equal(t, "l1", plan.Slices[1].LayerID)
	assert.Equal(t, int64(10), plan.Slices[1].Quantity)
	// 50*12 + 10*10 = 700
	assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("700.0000")))
}

// Escenario del libro mayor: entran 100 @ 10.00, salen 60 -> total 600.0000
// y la capa queda con 40 restantes (el decremento lo aplica el caller con el plan).
func TestPlan_FIFOSalidaParcial(t *testing.T) {
	layers := []entity.ValuationLayer{layer("l1", 100, "10.0000", 0)}

	plan := costing.Plan(layers, 60, costing.FIFO)

	require.Len(t, plan.Slices, 1)
	assert.Equal(t, int64(60), plan.Slices[0].Quantity)
	assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("600.0000")))
	assert.Equal(t, "600", plan.TotalCost.String())
}

// Si las capas se agotan el plan se detiene sin error: la validación de
// suficiencia ocurre antes, en el validador de stock.
func TestPlan_CapasAgotadasSeDetieneSinError(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l1", 30, "10.0000", 0),
		layer("l2", 0, "11.0000", 5), // ya agotada, se ignora
	}

	plan := costing.Plan(layers, 50, costing.FIFO)

	assert.Equal(t, int64(30), plan.Consumed)
	require.Len(t, plan.Slices, 1)
	assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("300.0000")))
}

func TestPlan_CantidadCeroONegativa(t *testing.T) {
	layers := []entity.ValuationLayer{layer("l1", 10, "10.0000", 0)}

	assert.Empty(t, costing.Plan(layers, 0, costing.FIFO).Slices)
	assert.Empty(t, costing.Plan(layers, -5, costing.FIFO).Slices)
	assert.True(t, costing.Plan(nil, 10, costing.FIFO).TotalCost.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan — MOVING_AVERAGE
// ──────────────────────────────────────────────────────────────────────────────

// Con promedio ponderado todas las unidades salen al WAC calculado antes del
// consumo, aunque las capas se decrementen en orden FIFO.
func TestPlan_MovingAverageValuaTodoAlWAC(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l1", 100, "10.0000", 0),
		layer("l2", 100, "20.0000", 10),
	}
	// WAC = (100*10 + 100*20) / 200 = 15

	plan := costing.Plan(layers, 150, costing.MovingAverage)

	require.Len(t, plan.Slices, 2)
	assert.Equal(t, "l1", plan.Slices[0].LayerID, "la contabilidad decrementa FIFO")
	for _, s := range plan.Slices {
		assert.True(t, s.UnitCost.Equal(decimal.RequireFromString("15.0000")))
	}
	// 150 * 15 = 2250
	assert.True(t, plan.TotalCost.Equal(decimal.RequireFromString("2250.0000")))
}

// El costo unitario promedio nunca sale del rango [min, max] de las capas.
func TestPlan_MovingAverageDentroDeRango(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l1", 37, "9.1300", 0),
		layer("l2", 11, "14.5500", 5),
		layer("l3", 90, "10.0001", 9),
	}

	plan := costing.Plan(layers, 70, costing.MovingAverage)

	min := decimal.RequireFromString("9.1300")
	max := decimal.RequireFromString("14.5500")
	unit := costing.UnitCost(plan.TotalCost, plan.Consumed)
	assert.True(t, unit.GreaterThanOrEqual(min), "unitario %s < min", unit)
	assert.True(t, unit.LessThanOrEqual(max), "unitario %s > max", unit)
}

// ──────────────────────────────────────────────────────────────────────────────
// WAC / UnitCost / Remaining
// ──────────────────────────────────────────────────────────────────────────────

func TestWAC_SinCapasDevuelveCero(t *testing.T) {
	assert.True(t, costing.WAC(nil).IsZero())
	assert.True(t, costing.WAC([]entity.ValuationLayer{layer("l1", 0, "10.0000", 0)}).IsZero())
}

func TestWAC_RedondeaACuatroDecimales(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l1", 3, "10.0000", 0),
		layer("l2", 1, "10.0001", 5),
	}
	// (30 + 10.0001) / 4 = 10.000025 -> 10.0000
	wac := costing.WAC(layers)
	assert.True(t, wac.Equal(decimal.RequireFromString("10.0000")), "wac=%s", wac)
	assert.GreaterOrEqual(t, wac.Exponent(), int32(-costing.Scale))
}

func TestUnitCost_GuardiaDivisionPorCero(t *testing.T) {
	assert.True(t, costing.UnitCost(decimal.RequireFromString("100.0000"), 0).IsZero())
	assert.True(t, costing.UnitCost(decimal.RequireFromString("100.0000"), 8).
		Equal(decimal.RequireFromString("12.5000")))
}

func TestRemaining_SumaSoloCapasAbiertas(t *testing.T) {
	layers := []entity.ValuationLayer{
		layer("l1", 40, "10.0000", 0),
		layer("l2", 0, "11.0000", 1),
		layer("l3", 5, "12.0000", 2),
	}
	assert.Equal(t, int64(45), costing.Remaining(layers))
}
