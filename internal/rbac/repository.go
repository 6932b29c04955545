package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-homes/meridian/internal/menu"
	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles, grants and the
// button permission catalog.
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

const buttonColumns = `id, name, identifier, description, menu_id, method, path, is_active, created_at, updated_at`

// GrantMenuTx grants menu visibility to a role. Granting an existing pair is
// a no-op; the bool reports whether a row was actually inserted.
func (r *Repository) GrantMenuTx(ctx context.Context, q db.Querier, role RoleName, menuID int64) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO role_menus (role_id, menu_id)
		SELECT r.id, $2 FROM roles r WHERE r.name = $1
		ON CONFLICT (role_id, menu_id) DO NOTHING`, string(role), menuID)
	if err != nil {
		if isFKViolation(err) {
			return false, fmt.Errorf("menu %d: %w", menuID, shared.ErrNotFound)
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RevokeMenuTx removes a menu grant. Revoking an ungranted pair is a no-op;
// the bool reports whether a row was actually removed.
func (r *Repository) RevokeMenuTx(ctx context.Context, q db.Querier, role RoleName, menuID int64) (bool, error) {
	tag, err := q.Exec(ctx, `
		DELETE FROM role_menus
		WHERE menu_id = $2 AND role_id = (SELECT id FROM roles WHERE name = $1)`, string(role), menuID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GrantButtonTx grants a button permission to a role, idempotently.
func (r *Repository) GrantButtonTx(ctx context.Context, q db.Querier, role RoleName, buttonID int64) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO role_button_permissions (role_id, button_permission_id)
		SELECT r.id, $2 FROM roles r WHERE r.name = $1
		ON CONFLICT (role_id, button_permission_id) DO NOTHING`, string(role), buttonID)
	if err != nil {
		if isFKViolation(err) {
			return false, fmt.Errorf("button permission %d: %w", buttonID, shared.ErrNotFound)
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RevokeButtonTx removes a button grant, idempotently.
func (r *Repository) RevokeButtonTx(ctx context.Context, q db.Querier, role RoleName, buttonID int64) (bool, error) {
	tag, err := q.Exec(ctx, `
		DELETE FROM role_button_permissions
		WHERE button_permission_id = $2 AND role_id = (SELECT id FROM roles WHERE name = $1)`, string(role), buttonID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MenusVisibleTo returns the menu nodes directly granted to a role, ordered
// for tree assembly.
func (r *Repository) MenusVisibleTo(ctx context.Context, role RoleName) ([]menu.Node, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.name, m.display_name, m.path, m.icon, m.parent_id, m.sort_order, m.is_active, m.created_at, m.updated_at
		FROM menus m
		JOIN role_menus rm ON rm.menu_id = m.id
		JOIN roles r ON r.id = rm.role_id
		WHERE r.name = $1 AND m.is_active
		ORDER BY m.sort_order, m.id`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nodes []menu.Node
	for rows.Next() {
		var n menu.Node
		var path, icon *string
		if err := rows.Scan(&n.ID, &n.Name, &n.DisplayName, &path, &icon, &n.ParentID, &n.SortOrder, &n.IsActive, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		if path != nil {
			n.Path = *path
		}
		if icon != nil {
			n.Icon = *icon
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ActiveMenus returns every active menu node, ordered for tree assembly.
func (r *Repository) ActiveMenus(ctx context.Context) ([]menu.Node, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.name, m.display_name, m.path, m.icon, m.parent_id, m.sort_order, m.is_active, m.created_at, m.updated_at
		FROM menus m
		WHERE m.is_active
		ORDER BY m.sort_order, m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var nodes []menu.Node
	for rows.Next() {
		var n menu.Node
		var path, icon *string
		if err := rows.Scan(&n.ID, &n.Name, &n.DisplayName, &path, &icon, &n.ParentID, &n.SortOrder, &n.IsActive, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		if path != nil {
			n.Path = *path
		}
		if icon != nil {
			n.Icon = *icon
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ButtonsPermittedTo returns the active button permissions directly granted
// to a role.
func (r *Repository) ButtonsPermittedTo(ctx context.Context, role RoleName) ([]ButtonPermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bp.id, bp.name, bp.identifier, bp.description, bp.menu_id, bp.method, bp.path, bp.is_active, bp.created_at, bp.updated_at
		FROM button_permissions bp
		JOIN role_button_permissions rbp ON rbp.button_permission_id = bp.id
		JOIN roles r ON r.id = rbp.role_id
		WHERE r.name = $1 AND bp.is_active
		ORDER BY bp.identifier`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectButtons(rows)
}

// RolesGranted returns the roles that can see a menu node.
func (r *Repository) RolesGranted(ctx context.Context, menuID int64) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.display_name
		FROM roles r
		JOIN role_menus rm ON rm.role_id = r.id
		WHERE rm.menu_id = $1
		ORDER BY r.id`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		var name string
		if err := rows.Scan(&role.ID, &name, &role.DisplayName); err != nil {
			return nil, err
		}
		role.Name = RoleName(name)
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// AllIdentifiers returns every active button permission identifier;
// SUPER_ADMIN's effective set.
func (r *Repository) AllIdentifiers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT identifier FROM button_permissions WHERE is_active ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetButton fetches one button permission.
func (r *Repository) GetButton(ctx context.Context, id int64) (ButtonPermission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+buttonColumns+` FROM button_permissions WHERE id = $1`, id)
	bp, err := scanButton(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ButtonPermission{}, fmt.Errorf("button permission %d: %w", id, shared.ErrNotFound)
		}
		return ButtonPermission{}, err
	}
	return bp, nil
}

// UpdateButtonTx rewrites a button permission inside the given querier.
func (r *Repository) UpdateButtonTx(ctx context.Context, q db.Querier, bp ButtonPermission) (ButtonPermission, error) {
	row := q.QueryRow(ctx, `
		UPDATE button_permissions
		SET name = $2, identifier = $3, description = $4, menu_id = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+buttonColumns,
		bp.ID, bp.Name, bp.Identifier, bp.Description, bp.MenuID, bp.IsActive)
	updated, err := scanButton(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ButtonPermission{}, fmt.Errorf("button permission %d: %w", bp.ID, shared.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return ButtonPermission{}, fmt.Errorf("%w: identifier %q already in use", shared.ErrValidation, bp.Identifier)
		}
		return ButtonPermission{}, err
	}
	return updated, nil
}

// DeleteButtonTx removes a button permission and its grants.
func (r *Repository) DeleteButtonTx(ctx context.Context, q db.Querier, id int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM role_button_permissions WHERE button_permission_id = $1`, id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM button_permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("button permission %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// IdentifierTaken reports whether another button permission on the same menu
// already uses the identifier.
func (r *Repository) IdentifierTaken(ctx context.Context, menuID *int64, identifier string, excludeID int64) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM button_permissions
		WHERE identifier = $1 AND menu_id IS NOT DISTINCT FROM $2 AND id <> $3`,
		identifier, menuID, excludeID).Scan(&count)
	return count > 0, err
}

// MenuExists reports whether a menu node exists.
func (r *Repository) MenuExists(ctx context.Context, menuID int64) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM menus WHERE id = $1`, menuID).Scan(&count)
	return count > 0, err
}

// UpsertCatalogTx inserts or refreshes a scanner-generated catalog row keyed
// by identifier. Re-running a scan never duplicates rows, and on conflict
// only method and path are refreshed: curated name, description and an
// administrator-assigned menu link survive rescans. A missing menu link is
// filled from the scan, never overwritten.
func (r *Repository) UpsertCatalogTx(ctx context.Context, q db.Querier, bp ButtonPermission) (ButtonPermission, bool, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO button_permissions (name, identifier, description, menu_id, method, path, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (identifier) DO UPDATE
		SET method = EXCLUDED.method, path = EXCLUDED.path,
			menu_id = COALESCE(button_permissions.menu_id, EXCLUDED.menu_id),
			updated_at = NOW()
		RETURNING `+buttonColumns+`, (xmax = 0) AS inserted`,
		bp.Name, bp.Identifier, bp.Description, bp.MenuID, bp.Method, bp.Path)
	var out ButtonPermission
	var menuID *int64
	var method, path, description *string
	var inserted bool
	if err := row.Scan(&out.ID, &out.Name, &out.Identifier, &description, &menuID, &method, &path, &out.IsActive, &out.CreatedAt, &out.UpdatedAt, &inserted); err != nil {
		return ButtonPermission{}, false, err
	}
	out.MenuID = menuID
	assignIfSet(&out.Description, description)
	assignIfSet(&out.Method, method)
	assignIfSet(&out.Path, path)
	return out, inserted, nil
}

func collectButtons(rows pgx.Rows) ([]ButtonPermission, error) {
	var buttons []ButtonPermission
	for rows.Next() {
		bp, err := scanButton(rows)
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, bp)
	}
	return buttons, rows.Err()
}

func scanButton(row pgx.Row) (ButtonPermission, error) {
	var bp ButtonPermission
	var description, method, path *string
	if err := row.Scan(&bp.ID, &bp.Name, &bp.Identifier, &description, &bp.MenuID, &method, &path, &bp.IsActive, &bp.CreatedAt, &bp.UpdatedAt); err != nil {
		return ButtonPermission{}, err
	}
	assignIfSet(&bp.Description, description)
	assignIfSet(&bp.Method, method)
	assignIfSet(&bp.Path, path)
	return bp, nil
}

func assignIfSet(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
