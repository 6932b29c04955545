package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-homes/meridian/internal/audit"
	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/shared"
)

// DeletePolicy controls what happens when a node with active children or
// button permissions is deleted.
type DeletePolicy string

const (
	// DeleteRestrict rejects the delete with a conflict.
	DeleteRestrict DeletePolicy = "restrict"
	// DeleteCascade removes the whole subtree, its button permissions and
	// every grant referencing them, in one transaction.
	DeleteCascade DeletePolicy = "cascade"
)

// AuditRecorder persists permission-relevant mutations. Menu mutations are
// audited strictly: the entry shares the mutation transaction.
type AuditRecorder interface {
	RecordTx(ctx context.Context, q db.Querier, entry audit.Entry) error
}

// Service owns menu tree reads and administrator mutations.
type Service struct {
	repo     *Repository
	recorder AuditRecorder
	logger   *slog.Logger
	policy   DeletePolicy
}

// NewService constructs a Service.
func NewService(repo *Repository, recorder AuditRecorder, logger *slog.Logger, policy DeletePolicy) *Service {
	if policy != DeleteCascade {
		policy = DeleteRestrict
	}
	return &Service{repo: repo, recorder: recorder, logger: logger, policy: policy}
}

// ListAll returns the flat ordered node sequence.
func (s *Service) ListAll(ctx context.Context) ([]Node, error) {
	return s.repo.ListAll(ctx)
}

// Get fetches one node.
func (s *Service) Get(ctx context.Context, id int64) (Node, error) {
	return s.repo.GetByID(ctx, id)
}

// Tree assembles the full menu forest. Integrity faults (orphaned parents,
// parent loops) are logged for remediation but never fail the read.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	nodes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	res, err := BuildTree(nodes)
	if err != nil {
		return nil, err
	}
	s.logIntegrity(res)
	return res.Roots, nil
}

// TreeOf assembles a forest from an already-filtered node set, e.g. the
// menus visible to a role.
func (s *Service) TreeOf(nodes []Node) ([]*TreeNode, error) {
	res, err := BuildTree(nodes)
	if err != nil {
		return nil, err
	}
	s.logIntegrity(res)
	return res.Roots, nil
}

// Create validates and inserts a new node, auditing in the same transaction.
func (s *Service) Create(ctx context.Context, actor audit.Actor, n Node) (Node, error) {
	if err := s.validate(ctx, n, false); err != nil {
		return Node{}, err
	}
	var created Node
	err := db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		var err error
		created, err = s.repo.Create(ctx, tx, n)
		if err != nil {
			return err
		}
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionCreate, audit.ResourceMenu,
			strconv.FormatInt(created.ID, 10), "created menu "+created.Name))
	})
	if err != nil {
		return Node{}, err
	}
	return created, nil
}

// Update validates and rewrites a node, auditing in the same transaction.
func (s *Service) Update(ctx context.Context, actor audit.Actor, n Node) (Node, error) {
	if err := s.validate(ctx, n, true); err != nil {
		return Node{}, err
	}
	var updated Node
	err := db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = s.repo.Update(ctx, tx, n)
		if err != nil {
			return err
		}
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionUpdate, audit.ResourceMenu,
			strconv.FormatInt(n.ID, 10), "updated menu "+updated.Name))
	})
	if err != nil {
		return Node{}, err
	}
	return updated, nil
}

// Delete removes a node honouring the configured policy. Cascade deletes the
// subtree with its button permissions and grants atomically.
func (s *Service) Delete(ctx context.Context, actor audit.Actor, id int64) error {
	node, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.policy == DeleteRestrict {
		children, err := s.repo.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		buttons, err := s.repo.CountButtons(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 || buttons > 0 {
			return fmt.Errorf("%w: menu %q has %d active children and %d active button permissions",
				shared.ErrConflict, node.Name, children, buttons)
		}
	}
	return db.WithTx(ctx, s.repo.pool, func(tx pgx.Tx) error {
		ids, err := s.repo.SubtreeIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteSubtree(ctx, tx, ids); err != nil {
			return err
		}
		desc := fmt.Sprintf("deleted menu %s (%d nodes)", node.Name, len(ids))
		return s.recorder.RecordTx(ctx, tx, actor.Entry(audit.ActionDelete, audit.ResourceMenu,
			strconv.FormatInt(id, 10), desc))
	})
}

func (s *Service) validate(ctx context.Context, n Node, existing bool) error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: menu name required", shared.ErrValidation)
	}
	if n.ParentID == nil {
		return nil
	}
	if existing && *n.ParentID == n.ID {
		return fmt.Errorf("%w: menu cannot be its own parent", shared.ErrValidation)
	}
	if _, err := s.repo.GetByID(ctx, *n.ParentID); err != nil {
		return fmt.Errorf("%w: parent menu %d does not exist", shared.ErrValidation, *n.ParentID)
	}
	if existing {
		// Reparenting under the node's own subtree would create a loop.
		ids, err := s.repo.SubtreeIDs(ctx, s.repo.pool, n.ID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id == *n.ParentID {
				return fmt.Errorf("%w: menu %d cannot be moved under its own descendant %d", shared.ErrValidation, n.ID, *n.ParentID)
			}
		}
	}
	return nil
}

func (s *Service) logIntegrity(res TreeResult) {
	if s.logger == nil {
		return
	}
	for _, id := range res.Orphans {
		s.logger.Warn("menu parent missing, node promoted to root", slog.Int64("menu_id", id))
	}
	for _, id := range res.Cycles {
		s.logger.Warn("menu parent loop detected, node promoted to root", slog.Int64("menu_id", id))
	}
}
