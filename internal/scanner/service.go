package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/meridian-homes/meridian/internal/audit"
	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/rbac"
)

// AuditRecorder records scan runs. Scans are catalog maintenance, not
// permission mutations, so recording is lenient: a failed audit write is
// logged and the scan result stands.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Summary reports what one scan run did to the catalog.
type Summary struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Service discovers routes and upserts them into the button permission
// catalog keyed by identifier. Re-running a scan is idempotent: existing
// rows keep their id, grants and name.
type Service struct {
	repo     *rbac.Repository
	recorder AuditRecorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo *rbac.Repository, recorder AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

// Preview lists the routes a scan would catalog, with their resolved menu
// paths, without touching storage.
func (s *Service) Preview(ctx context.Context, routes chi.Routes) ([]RouteDescriptor, error) {
	return s.collect(ctx, routes)
}

// collect walks the router and resolves each route against the active menu
// tree. Routes no menu covers stay in the result with a nil menu id.
func (s *Service) collect(ctx context.Context, routes chi.Routes) ([]RouteDescriptor, error) {
	descriptors, err := Collect(routes)
	if err != nil {
		return nil, err
	}
	menus, err := s.repo.ActiveMenus(ctx)
	if err != nil {
		return nil, err
	}
	NewMenuResolver(menus).Annotate(descriptors)
	return descriptors, nil
}

// ScanAndSave walks the router and upserts every discovered route into the
// catalog in one transaction. Rows are matched by identifier; new routes
// insert with their resolved menu link, known routes refresh method and
// path while curated fields stand.
func (s *Service) ScanAndSave(ctx context.Context, actor audit.Actor, routes chi.Routes) (Summary, error) {
	descriptors, err := s.collect(ctx, routes)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	err = db.WithTx(ctx, s.repo.Pool(), func(tx pgx.Tx) error {
		for _, d := range descriptors {
			bp := rbac.ButtonPermission{
				Name:       d.Name,
				Identifier: d.Identifier,
				MenuID:     d.MenuID,
				Method:     d.Method,
				Path:       d.Path,
				IsActive:   true,
			}
			_, inserted, err := s.repo.UpsertCatalogTx(ctx, tx, bp)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", d.Identifier, err)
			}
			summary.Total++
			if inserted {
				summary.Inserted++
			} else {
				summary.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	desc := fmt.Sprintf("scanned %d routes: %d new, %d refreshed", summary.Total, summary.Inserted, summary.Updated)
	s.recorder.Record(ctx, actor.Entry(audit.ActionScan, audit.ResourcePermissionCatalog, "", desc))
	s.logger.Info("permission scan complete",
		slog.Int("total", summary.Total),
		slog.Int("inserted", summary.Inserted),
		slog.Int("updated", summary.Updated))
	return summary, nil
}
