package entity

import "time"

// Estados de una reserva de stock. RELEASED y EXPIRED son terminales.
const (
	ReservationStatusActive   = "ACTIVE"
	ReservationStatusReleased = "RELEASED"
	ReservationStatusExpired  = "EXPIRED"
)

// StockReservation cantidad retenida contra consumo futuro con expiración dura.
// Al crearla se programa un job de expiración de un solo disparo, con llave
// única igual al ID de la reserva.
type StockReservation struct {
	ID            string
	TenantID      string
	ProductID     string
	LocationID    string
	Quantity      int64
	Status        string
	ExpiresAt     time.Time
	ReferenceType *string
	ReferenceID   *string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
