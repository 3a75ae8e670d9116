package entity

import "time"

// Balance saldo físico de un producto en una ubicación (una fila por tenant+producto+ubicación).
// Se muta únicamente vía incrementos atómicos en el repositorio; nunca se borra, solo se lleva a cero.
type Balance struct {
	TenantID    string
	ProductID   string
	LocationID  string
	OnHandQty   int64 // cantidad en mano (>= 0)
	ReservedQty int64 // cantidad reservada contra demanda futura (>= 0)
	UpdatedAt   time.Time
}

// Available cantidad disponible para consumo o reserva.
func (b *Balance) Available() int64 {
	return b.OnHandQty - b.ReservedQty
}
