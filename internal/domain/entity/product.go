package entity

import "time"

// Tipos de producto. El stock no puede colgarse directamente de un producto
// VARIABLE (SKU padre); solo sus variantes simples mantienen saldo.
const (
	ProductTypeSimple   = "SIMPLE"
	ProductTypeVariable = "VARIABLE"
)

// Product referencia mínima de catálogo que necesita el motor de inventario.
// El CRUD completo de productos vive fuera de este subsistema.
type Product struct {
	ID            string
	TenantID      string
	SKU           string
	Name          string
	Type          string  // SIMPLE | VARIABLE
	CostingMethod *string // override por producto; nil = usar default del tenant
	DeletedAt     *time.Time
}
