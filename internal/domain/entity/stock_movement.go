package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direcciones de movimiento del libro mayor de inventario.
const (
	MovementTypeIN  = "IN"  // entrada
	MovementTypeOUT = "OUT" // salida
)

// ReferenceType origen del movimiento (enum cerrado).
type ReferenceType string

const (
	ReferencePurchase   ReferenceType = "PURCHASE"
	ReferenceSale       ReferenceType = "SALE"
	ReferenceReturn     ReferenceType = "RETURN"
	ReferenceAdjustment ReferenceType = "ADJUSTMENT"
	ReferenceTransfer   ReferenceType = "TRANSFER"
)

// Valid indica si el valor pertenece al enum.
func (t ReferenceType) Valid() bool {
	switch t {
	case ReferencePurchase, ReferenceSale, ReferenceReturn, ReferenceAdjustment, ReferenceTransfer:
		return true
	}
	return false
}

// StockMovement asiento inmutable del libro mayor. Nunca se actualiza ni se
// borra después de creado: es el sistema de registro.
type StockMovement struct {
	ID            string
	TenantID      string
	ProductID     string
	LocationID    string
	Type          string // IN | OUT
	Quantity      int64  // siempre > 0; la dirección la da Type
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   *string
	Note          string
	CreatedBy     string // UserID
	CreatedAt     time.Time
}
