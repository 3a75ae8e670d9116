package costing

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Método de valuación: determina el costo que se carga cuando el stock sale.
type Method string

const (
	FIFO          Method = "FIFO"           // primera capa en entrar, primera en salir
	LIFO          Method = "LIFO"           // última capa en entrar, primera en salir
	MovingAverage Method = "MOVING_AVERAGE" // promedio ponderado sobre capas abiertas
)

// Scale precisión fija de los costos (4 decimales).
const Scale = 4

// ParseMethod interpreta el método configurado; cualquier valor desconocido o
// vacío cae a FIFO. Nunca falla.
func ParseMethod(s string) Method {
	switch Method(s) {
	case FIFO, LIFO, MovingAverage:
		return Method(s)
	}
	return FIFO
}

// LayerSlice porción consumida de una capa concreta.
type LayerSlice struct {
	LayerID  string
	Quantity int64
	UnitCost decimal.Decimal
}

// ConsumptionPlan resultado del consumo planificado sobre un conjunto de capas.
// Consumed puede ser menor que lo pedido si las capas se agotan: el plan no
// falla por insuficiencia, esa validación es responsabilidad del caller.
type ConsumptionPlan struct {
	Slices    []LayerSlice
	TotalCost decimal.Decimal
	Consumed  int64
}

// Plan calcula el consumo greedy de `quantity` unidades sobre las capas dadas.
//
// FIFO / MOVING_AVERAGE recorren por CreatedAt ascendente; LIFO descendente.
// Con MOVING_AVERAGE todas las unidades consumidas se valúan al promedio
// ponderado calculado ANTES de empezar a consumir, aunque las capas se
// decrementen igualmente en orden FIFO para la contabilidad.
func Plan(layers []entity.ValuationLayer, quantity int64, method Method) ConsumptionPlan {
	plan := ConsumptionPlan{TotalCost: decimal.Zero}
	if quantity <= 0 || len(layers) == 0 {
		return plan
	}

	ordered := make([]entity.ValuationLayer, len(layers))
	copy(ordered, layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if method == LIFO {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var avg decimal.Decimal
	if method == MovingAverage {
		avg = WAC(ordered)
	}

	pending := quantity
	for _, layer := range ordered {
		if pending == 0 {
			break
		}
		if layer.RemainingQty <= 0 {
			continue
		}
		take := layer.RemainingQty
		if take > pending {
			take = pending
		}
		cost := layer.UnitCost
		if method == MovingAverage {
			cost = avg
		}
		plan.Slices = append(plan.Slices, LayerSlice{
			LayerID:  layer.ID,
			Quantity: take,
			UnitCost: cost,
		})
		plan.TotalCost = plan.TotalCost.Add(cost.Mul(decimal.NewFromInt(take)))
		plan.Consumed += take
		pending -= take
	}
	plan.TotalCost = plan.TotalCost.Round(Scale)
	return plan
}

// WAC promedio ponderado: Σ(costo_i × restante_i) / Σ(restante_i) sobre capas
// con restante > 0. Devuelve 0 si no hay capas abiertas.
func WAC(layers []entity.ValuationLayer) decimal.Decimal {
	var qty int64
	value := decimal.Zero
	for _, layer := range layers {
		if layer.RemainingQty <= 0 {
			continue
		}
		qty += layer.RemainingQty
		value = value.Add(layer.UnitCost.Mul(decimal.NewFromInt(layer.RemainingQty)))
	}
	if qty == 0 {
		return decimal.Zero
	}
	return value.Div(decimal.NewFromInt(qty)).Round(Scale)
}

// UnitCost costo unitario derivado de un total; 0 si la cantidad es 0
// (guardia de división por cero para consumos vacíos).
func UnitCost(totalCost decimal.Decimal, quantity int64) decimal.Decimal {
	if quantity == 0 {
		return decimal.Zero
	}
	return totalCost.Div(decimal.NewFromInt(quantity)).Round(Scale)
}

// Remaining suma de cantidades restantes; cruce de control contra el saldo en mano.
func Remaining(layers []entity.ValuationLayer) int64 {
	var total int64
	for _, layer := range layers {
		if layer.RemainingQty > 0 {
			total += layer.RemainingQty
		}
	}
	return total
}
