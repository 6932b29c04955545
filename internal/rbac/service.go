package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-homes/meridian/internal/audit"
	"github.com/meridian-homes/meridian/internal/menu"
	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/shared"
)

// AuditRecorder persists permission-relevant mutations. Grant mutations are
// audited strictly: the entry shares the mutation transaction, so an audit
// write failure rolls the grant back.
type AuditRecorder interface {
	RecordTx(ctx context.Context, q db.Querier, entry audit.Entry) error
}

// Service is the role resolution engine plus the permission grant store.
type Service struct {
	repo     *Repository
	recorder AuditRecorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo *Repository, recorder AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// EffectiveMenus returns the menu nodes visible to a role: its direct grants
// plus every inherited role's grants, deduplicated. SUPER_ADMIN sees every
// active menu without consulting grant tables.
func (s *Service) EffectiveMenus(ctx context.Context, role RoleName) ([]menu.Node, error) {
	if role == RoleSuperAdmin {
		return s.repo.ActiveMenus(ctx)
	}
	seen := make(map[int64]struct{})
	var nodes []menu.Node
	for _, r := range InheritanceChain(role) {
		granted, err := s.repo.MenusVisibleTo(ctx, r)
		if err != nil {
			return nil, err
		}
		for _, n := range granted {
			if _, ok := seen[n.ID]; ok {
				continue
			}
			seen[n.ID] = struct{}{}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// EffectiveMenuTree assembles the effective menus into a navigation forest.
// Nodes whose parent falls outside the visible set surface as roots.
func (s *Service) EffectiveMenuTree(ctx context.Context, role RoleName) ([]*menu.TreeNode, error) {
	nodes, err := s.EffectiveMenus(ctx, role)
	if err != nil {
		return nil, err
	}
	res, err := menu.BuildTree(nodes)
	if err != nil {
		return nil, err
	}
	return res.Roots, nil
}

// EffectivePermissions returns the deduplicated button permission
// identifiers granted to a role, inheritance expanded. SUPER_ADMIN holds
// every active identifier.
func (s *Service) EffectivePermissions(ctx context.Context, role RoleName) ([]string, error) {
	if role == RoleSuperAdmin {
		return s.repo.AllIdentifiers(ctx)
	}
	seen := make(map[string]struct{})
	var identifiers []string
	for _, r := range InheritanceChain(role) {
		buttons, err := s.repo.ButtonsPermittedTo(ctx, r)
		if err != nil {
			return nil, err
		}
		for _, bp := range buttons {
			if _, ok := seen[bp.Identifier]; ok {
				continue
			}
			seen[bp.Identifier] = struct{}{}
			identifiers = append(identifiers, bp.Identifier)
		}
	}
	return identifiers, nil
}

// HasPermission reports whether the role's effective set contains the
// identifier.
func (s *Service) HasPermission(ctx context.Context, role RoleName, identifier string) (bool, error) {
	if role == RoleSuperAdmin {
		return true, nil
	}
	perms, err := s.EffectivePermissions(ctx, role)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == identifier {
			return true, nil
		}
	}
	return false, nil
}

// IsRouteAllowed applies the static route allow-lists with inheritance.
func (s *Service) IsRouteAllowed(role RoleName, path string) bool {
	return RouteAllowed(role, path)
}

// GrantMenu grants menu visibility to a role, idempotently. An actual
// insertion is audited in the same transaction.
func (s *Service) GrantMenu(ctx context.Context, actor audit.Actor, role RoleName, menuID int64) error {
	return db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		granted, err := s.repo.GrantMenuTx(ctx, tx, role, menuID)
		if err != nil {
			return err
		}
		if !granted {
			return nil
		}
		desc := fmt.Sprintf("granted menu %d to %s", menuID, role)
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionGrant, audit.ResourceRoleGrant, grantResourceID(role, "menu", menuID), desc))
	})
}

// RevokeMenu removes a menu grant, idempotently.
func (s *Service) RevokeMenu(ctx context.Context, actor audit.Actor, role RoleName, menuID int64) error {
	return db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		revoked, err := s.repo.RevokeMenuTx(ctx, tx, role, menuID)
		if err != nil {
			return err
		}
		if !revoked {
			return nil
		}
		desc := fmt.Sprintf("revoked menu %d from %s", menuID, role)
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionRevoke, audit.ResourceRoleGrant, grantResourceID(role, "menu", menuID), desc))
	})
}

// GrantButton grants a button permission to a role, idempotently.
func (s *Service) GrantButton(ctx context.Context, actor audit.Actor, role RoleName, buttonID int64) error {
	return db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		granted, err := s.repo.GrantButtonTx(ctx, tx, role, buttonID)
		if err != nil {
			return err
		}
		if !granted {
			return nil
		}
		desc := fmt.Sprintf("granted button permission %d to %s", buttonID, role)
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionGrant, audit.ResourceRoleGrant, grantResourceID(role, "button", buttonID), desc))
	})
}

// RevokeButton removes a button grant, idempotently.
func (s *Service) RevokeButton(ctx context.Context, actor audit.Actor, role RoleName, buttonID int64) error {
	return db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		revoked, err := s.repo.RevokeButtonTx(ctx, tx, role, buttonID)
		if err != nil {
			return err
		}
		if !revoked {
			return nil
		}
		desc := fmt.Sprintf("revoked button permission %d from %s", buttonID, role)
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionRevoke, audit.ResourceRoleGrant, grantResourceID(role, "button", buttonID), desc))
	})
}

// RolesGranted returns the roles a menu node is visible to.
func (s *Service) RolesGranted(ctx context.Context, menuID int64) ([]Role, error) {
	return s.repo.RolesGranted(ctx, menuID)
}

// GetButton fetches one button permission.
func (s *Service) GetButton(ctx context.Context, id int64) (ButtonPermission, error) {
	return s.repo.GetButton(ctx, id)
}

// UpdateButton validates and rewrites a button permission. Identifier must
// stay unique within its menu and the menu must exist.
func (s *Service) UpdateButton(ctx context.Context, actor audit.Actor, bp ButtonPermission) (ButtonPermission, error) {
	bp.Identifier = strings.TrimSpace(bp.Identifier)
	if bp.Identifier == "" {
		return ButtonPermission{}, fmt.Errorf("%w: identifier required", shared.ErrValidation)
	}
	if strings.TrimSpace(bp.Name) == "" {
		return ButtonPermission{}, fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if bp.MenuID != nil {
		exists, err := s.repo.MenuExists(ctx, *bp.MenuID)
		if err != nil {
			return ButtonPermission{}, err
		}
		if !exists {
			return ButtonPermission{}, fmt.Errorf("menu %d: %w", *bp.MenuID, shared.ErrNotFound)
		}
	}
	taken, err := s.repo.IdentifierTaken(ctx, bp.MenuID, bp.Identifier, bp.ID)
	if err != nil {
		return ButtonPermission{}, err
	}
	if taken {
		return ButtonPermission{}, fmt.Errorf("%w: identifier %q already used on this menu", shared.ErrValidation, bp.Identifier)
	}
	var updated ButtonPermission
	err = db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = s.repo.UpdateButtonTx(ctx, tx, bp)
		if err != nil {
			return err
		}
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionUpdate, audit.ResourceButtonPermission,
			strconv.FormatInt(bp.ID, 10), "updated button permission "+updated.Identifier))
	})
	if err != nil {
		return ButtonPermission{}, err
	}
	return updated, nil
}

// DeleteButton removes a button permission together with its grants.
func (s *Service) DeleteButton(ctx context.Context, actor audit.Actor, id int64) error {
	bp, err := s.repo.GetButton(ctx, id)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		if err := s.repo.DeleteButtonTx(ctx, tx, id); err != nil {
			return err
		}
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionDelete, audit.ResourceButtonPermission,
			strconv.FormatInt(id, 10), "deleted button permission "+bp.Identifier))
	})
}

func grantResourceID(role RoleName, kind string, id int64) string {
	return fmt.Sprintf("%s:%s:%d", role, kind, id)
}
