package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository using SQLite.
type ResourceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewResourceRepository creates a new SQLite resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const resourceColumns = `id, name, type, location_id, active, under_maintenance, blocked_from, blocked_until, block_reason, created_at, updated_at`

// CreateResource inserts a new resource into the catalog.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" || resource.Name == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resources (` + resourceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		resource.ID,
		resource.Name,
		resource.Type,
		resource.LocationID,
		boolToInt(resource.Active),
		boolToInt(resource.UnderMaintenance),
		nullTime(resource.BlockedFrom),
		nullTime(resource.BlockedUntil),
		nullString(resource.BlockReason),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateResource updates an existing catalog entry.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" || resource.Name == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE resources
		SET name = ?, type = ?, location_id = ?, active = ?, under_maintenance = ?, blocked_from = ?, blocked_until = ?, block_reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		resource.Name,
		resource.Type,
		resource.LocationID,
		boolToInt(resource.Active),
		boolToInt(resource.UnderMaintenance),
		nullTime(resource.BlockedFrom),
		nullTime(resource.BlockedUntil),
		nullString(resource.BlockReason),
		formatTime(resource.UpdatedAt),
		resource.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetResource retrieves a resource by ID.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
	row := r.helper.QueryRow(ctx, query, id)

	resource, err := scanResource(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Resource{}, persistence.ErrNotFound
		}
		return persistence.Resource{}, r.mapper.MapError(err)
	}
	return resource, nil
}

// ListResources returns all resources ordered by name then ID.
func (r *ResourceRepository) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources ORDER BY name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return resources, nil
}

// scanResource reads one resource row through the given scan function.
func scanResource(scan func(dest ...any) error) (persistence.Resource, error) {
	var resource persistence.Resource
	var active, underMaintenance int
	var blockedFrom, blockedUntil, blockReason sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(
		&resource.ID,
		&resource.Name,
		&resource.Type,
		&resource.LocationID,
		&active,
		&underMaintenance,
		&blockedFrom,
		&blockedUntil,
		&blockReason,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Resource{}, err
	}

	resource.Active = active != 0
	resource.UnderMaintenance = underMaintenance != 0
	if blockReason.Valid {
		resource.BlockReason = &blockReason.String
	}

	if blockedFrom.Valid {
		parsed, err := time.Parse(time.RFC3339, blockedFrom.String)
		if err != nil {
			return persistence.Resource{}, fmt.Errorf("failed to parse blocked_from: %w", err)
		}
		resource.BlockedFrom = &parsed
	}
	if blockedUntil.Valid {
		parsed, err := time.Parse(time.RFC3339, blockedUntil.String)
		if err != nil {
			return persistence.Resource{}, fmt.Errorf("failed to parse blocked_until: %w", err)
		}
		resource.BlockedUntil = &parsed
	}
	if resource.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if resource.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return resource, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
