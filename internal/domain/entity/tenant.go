package entity

// Tenant empresa dueña de todos los datos; toda consulta y mutación del motor
// filtra por TenantID. CostingMethod es el método de valuación por defecto
// cuando el producto no define uno propio.
type Tenant struct {
	ID            string
	Name          string
	CostingMethod string // FIFO | LIFO | MOVING_AVERAGE (vacío = FIFO)
}
