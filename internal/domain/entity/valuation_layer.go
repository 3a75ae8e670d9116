package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationLayer lote costeado creado por cada entrada de stock.
// Solo se muta decrementando RemainingQty al consumir; las capas agotadas
// (RemainingQty=0) se conservan para auditoría e historia de valuación.
// El orden por CreatedAt define el consumo FIFO (asc) / LIFO (desc).
type ValuationLayer struct {
	ID               string
	TenantID         string
	ProductID        string
	LocationID       string
	OriginalQty      int64
	RemainingQty     int64 // 0..OriginalQty
	UnitCost         decimal.Decimal
	SourceMovementID string
	BatchID          *string
	CreatedAt        time.Time
}

// LayerConsumption registro de auditoría: qué capa consumió cada salida y a qué costo.
// Append-only.
type LayerConsumption struct {
	ID         string
	LayerID    string
	MovementID string
	Quantity   int64
	UnitCost   decimal.Decimal
	CreatedAt  time.Time
}
