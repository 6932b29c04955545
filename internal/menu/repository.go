package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence for menu nodes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Pool exposes the underlying pool for transactional service flows.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

const nodeColumns = `id, name, display_name, path, icon, parent_id, sort_order, is_active, created_at, updated_at`

// ListAll returns every menu node ordered by sort_order, ties by id.
func (r *Repository) ListAll(ctx context.Context) ([]Node, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+nodeColumns+` FROM menus ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// GetByID fetches a single menu node.
func (r *Repository) GetByID(ctx context.Context, id int64) (Node, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+nodeColumns+` FROM menus WHERE id = $1`, id)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Node{}, fmt.Errorf("menu %d: %w", id, shared.ErrNotFound)
		}
		return Node{}, err
	}
	return n, nil
}

// Create inserts a node inside the given querier.
func (r *Repository) Create(ctx context.Context, q db.Querier, n Node) (Node, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO menus (name, display_name, path, icon, parent_id, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+nodeColumns,
		n.Name, n.DisplayName, nullable(n.Path), nullable(n.Icon), n.ParentID, n.SortOrder, n.IsActive)
	created, err := scanNode(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Node{}, fmt.Errorf("%w: menu name %q already exists", shared.ErrConflict, n.Name)
		}
		return Node{}, err
	}
	return created, nil
}

// Update rewrites a node inside the given querier.
func (r *Repository) Update(ctx context.Context, q db.Querier, n Node) (Node, error) {
	row := q.QueryRow(ctx, `
		UPDATE menus
		SET name = $2, display_name = $3, path = $4, icon = $5, parent_id = $6, sort_order = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+nodeColumns,
		n.ID, n.Name, n.DisplayName, nullable(n.Path), nullable(n.Icon), n.ParentID, n.SortOrder, n.IsActive)
	updated, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Node{}, fmt.Errorf("menu %d: %w", n.ID, shared.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return Node{}, fmt.Errorf("%w: menu name %q already exists", shared.ErrConflict, n.Name)
		}
		return Node{}, err
	}
	return updated, nil
}

// Delete removes a single node. Callers are responsible for the delete
// policy; grants on the node go with it.
func (r *Repository) Delete(ctx context.Context, q db.Querier, id int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM role_menus WHERE menu_id = $1`, id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menu %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// SubtreeIDs returns the ids of the node and all its descendants.
func (r *Repository) SubtreeIDs(ctx context.Context, q db.Querier, id int64) ([]int64, error) {
	rows, err := q.Query(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM menus WHERE id = $1
			UNION ALL
			SELECT m.id FROM menus m JOIN subtree s ON m.parent_id = s.id
		)
		SELECT id FROM subtree`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return ids, rows.Err()
}

// DeleteSubtree removes the listed menu ids together with their button
// permissions and every grant referencing either.
func (r *Repository) DeleteSubtree(ctx context.Context, q db.Querier, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	statements := []string{
		`DELETE FROM role_button_permissions WHERE button_permission_id IN (SELECT id FROM button_permissions WHERE menu_id = ANY($1))`,
		`DELETE FROM button_permissions WHERE menu_id = ANY($1)`,
		`DELETE FROM role_menus WHERE menu_id = ANY($1)`,
		`DELETE FROM menus WHERE id = ANY($1)`,
	}
	for _, stmt := range statements {
		if _, err := q.Exec(ctx, stmt, ids); err != nil {
			return err
		}
	}
	return nil
}

// CountChildren reports how many active children a node has.
func (r *Repository) CountChildren(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menus WHERE parent_id = $1 AND is_active`, id).Scan(&count)
	return count, err
}

// CountButtons reports how many active button permissions belong to a node.
func (r *Repository) CountButtons(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM button_permissions WHERE menu_id = $1 AND is_active`, id).Scan(&count)
	return count, err
}

func scanNode(row pgx.Row) (Node, error) {
	var n Node
	var path, icon *string
	if err := row.Scan(&n.ID, &n.Name, &n.DisplayName, &path, &icon, &n.ParentID, &n.SortOrder, &n.IsActive, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return Node{}, err
	}
	if path != nil {
		n.Path = *path
	}
	if icon != nil {
		n.Icon = *icon
	}
	return n, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
