package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-homes/meridian/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for audit entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool exposes the underlying pool for transactional flows.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// Insert appends one entry using the pool directly.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	return r.InsertTx(ctx, r.pool, e)
}

// InsertTx appends one entry inside the given querier.
func (r *Repository) InsertTx(ctx context.Context, q db.Querier, e Entry) error {
	var createdAt any
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt
	}
	_, err := q.Exec(ctx, `
		INSERT INTO permission_audit_logs (user_id, action, resource_type, resource_id, description, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))`,
		e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Description, e.IPAddress, e.UserAgent, createdAt)
	return err
}

// List returns a filtered page of entries, newest first, plus the total count
// for the same filters.
func (r *Repository) List(ctx context.Context, f ListFilters) ([]Entry, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permission_audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitArgs := append(args, f.PerPage, (f.Page-1)*f.PerPage)
	query := fmt.Sprintf(`
		SELECT id, user_id, action, resource_type, resource_id, description, ip_address, user_agent, created_at
		FROM permission_audit_logs%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, limitArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Description, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// CountsByAction groups entries newer than since by action.
func (r *Repository) CountsByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT action, COUNT(*)
		FROM permission_audit_logs
		WHERE created_at >= $1
		GROUP BY action
		ORDER BY action`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var counts []ActionCount
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// PurgeBefore removes entries strictly older than cutoff and reports how many
// were removed.
func (r *Repository) PurgeBefore(ctx context.Context, q db.Querier, cutoff time.Time) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM permission_audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Purge deletes old entries and appends the cleanup record atomically.
func (r *Repository) Purge(ctx context.Context, cutoff time.Time, actor Actor) (int64, error) {
	var purged int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		purged, err = r.PurgeBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("purged %d audit entries older than %s", purged, cutoff.UTC().Format(time.RFC3339))
		return r.InsertTx(ctx, tx, actor.Entry(ActionCleanup, ResourceAuditLog, "", desc))
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

func buildWhere(f ListFilters) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.ResourceType != "" {
		add("resource_type = $%d", f.ResourceType)
	}
	if f.UserID > 0 {
		add("user_id = $%d", f.UserID)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		clauses = append(clauses, fmt.Sprintf("(description ILIKE $%d OR ip_address ILIKE $%d)", len(args), len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
