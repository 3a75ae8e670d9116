package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BalanceRepository puerto de persistencia para el saldo por tenant+producto+ubicación (DIP).
//
// ApplyDelta es el único camino de mutación: incremento atómico en una sola
// sentencia (upsert con suma), nunca leer-modificar-escribir. Es seguro bajo
// callers concurrentes sobre la misma llave.
type BalanceRepository interface {
	// Get devuelve el saldo; fila en cero si no existe.
	Get(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error)
	// GetForUpdate igual que Get pero bloqueando la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, tenantID, productID, locationID string) (*entity.Balance, error)
	// GetMany lectura batcheada para validar disponibilidad de varios productos
	// en una sola consulta. El mapa se indexa por ProductID; productos sin fila
	// no aparecen.
	GetMany(ctx context.Context, tenantID, locationID string, productIDs []string) (map[string]*entity.Balance, error)
	// ApplyDelta crea la fila si no existe (con on_hand = max(0, delta)) o
	// incrementa atómicamente on_hand y reserved por los deltas (pueden ser negativos).
	ApplyDelta(ctx context.Context, tenantID, productID, locationID string, deltaOnHand, deltaReserved int64) error
}
