package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo lecturas de ubicaciones/bodegas para el motor de inventario.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación del tenant; nil si no existe.
func (r *LocationRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error) {
	query := `
		SELECT id, tenant_id, name, is_active
		FROM locations WHERE tenant_id = $1 AND id = $2`
	var loc entity.Location
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(&loc.ID, &loc.TenantID, &loc.Name, &loc.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

// GetByIDs ubicaciones existentes del tenant; las ausentes no vienen.
func (r *LocationRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Location, error) {
	query := `
		SELECT id, tenant_id, name, is_active
		FROM locations WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := r.q.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("get locations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Location
	for rows.Next() {
		var loc entity.Location
		if err := rows.Scan(&loc.ID, &loc.TenantID, &loc.Name, &loc.IsActive); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &loc)
	}
	return list, rows.Err()
}
