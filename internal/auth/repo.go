package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-homes/meridian/internal/rbac"
	"github.com/meridian-homes/meridian/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	IdentityByID(ctx context.Context, id int64) (rbac.Identity, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT id, email, name, password_hash, role, project_ids, is_active, created_at, updated_at
FROM users
WHERE email = $1`
	var u User
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.ProjectIDs, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// IdentityByID resolves the authorization identity for a user id. The raw
// project scope string is parsed here so callers only ever see the typed
// scope.
func (r *PGRepository) IdentityByID(ctx context.Context, id int64) (rbac.Identity, error) {
	const q = `
SELECT id, email, role, project_ids, is_active
FROM users
WHERE id = $1`
	var (
		identity   rbac.Identity
		role       string
		projectIDs string
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&identity.ID, &identity.Email, &role, &projectIDs, &identity.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rbac.Identity{}, shared.ErrNotFound
		}
		return rbac.Identity{}, err
	}
	identity.Role = rbac.RoleName(role)
	identity.Scope = rbac.ParseProjectScope(projectIDs)
	return identity, nil
}

// CreateSession persists a login session record for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	const q = `
INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))
ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`
	_, err := r.pool.Exec(ctx, q, id, userID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
