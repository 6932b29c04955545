package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-homes/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns active projects ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, city, is_active, created_at, updated_at
		FROM projects
		WHERE is_active
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.City, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetByID fetches one project.
func (r *Repository) GetByID(ctx context.Context, id string) (Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, city, is_active, created_at, updated_at
		FROM projects
		WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.City, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, shared.ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

// Exists reports whether an active project with the id exists.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE id = $1 AND is_active`, id).Scan(&count)
	return count > 0, err
}

// UnitCounts groups a project's units by status.
func (r *Repository) UnitCounts(ctx context.Context, projectID string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM units
		WHERE project_id = $1
		GROUP BY status`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Units lists a project's units ordered by unit number.
func (r *Repository) Units(ctx context.Context, projectID string) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, unit_no, status, price_cents, updated_at
		FROM units
		WHERE project_id = $1
		ORDER BY unit_no`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.UnitNo, &u.Status, &u.PriceCents, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
