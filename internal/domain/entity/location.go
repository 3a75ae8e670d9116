package entity

// Location bodega o ubicación física donde se mantiene saldo.
type Location struct {
	ID       string
	TenantID string
	Name     string
	IsActive bool
}
