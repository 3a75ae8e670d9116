package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del traslado entre ubicaciones.
// DRAFT -> IN_TRANSIT -> {COMPLETED, CANCELLED}; DRAFT -> CANCELLED directo.
// COMPLETED y CANCELLED son terminales.
const (
	TransferStatusDraft     = "DRAFT"
	TransferStatusInTransit = "IN_TRANSIT"
	TransferStatusCompleted = "COMPLETED"
	TransferStatusCancelled = "CANCELLED"
)

// StockTransfer instancia de la máquina de estados de traslado.
// TransferNumber es secuencial por tenant con formato TRF-<año>-NNNN.
type StockTransfer struct {
	ID             string
	TenantID       string
	TransferNumber string
	FromLocationID string
	ToLocationID   string
	Status         string
	Note           string
	Items          []TransferItem
	CreatedBy      string
	CreatedAt      time.Time
	ShippedAt      *time.Time
	ReceivedAt     *time.Time
	CancelledAt    *time.Time
}

// TransferItem línea del traslado. ShippedUnitCost se captura al despachar y
// es la única fuente de verdad para recibir/cancelar (no se recalcula).
type TransferItem struct {
	ID              string
	TransferID      string
	ProductID       string
	RequestedQty    int64
	ShippedQty      int64
	ShippedUnitCost decimal.Decimal
	ReceivedQty     int64
	ShortageReason  *string
}
