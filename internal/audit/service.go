package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/shared"
)

const breakdownWindow = 30 * 24 * time.Hour

// RepositoryPort defines data access needed by the audit service.
type RepositoryPort interface {
	Insert(ctx context.Context, e Entry) error
	InsertTx(ctx context.Context, q db.Querier, e Entry) error
	List(ctx context.Context, f ListFilters) ([]Entry, int, error)
	CountsByAction(ctx context.Context, since time.Time) ([]ActionCount, error)
	Purge(ctx context.Context, cutoff time.Time, actor Actor) (int64, error)
}

// Result is one page of audit entries plus the trailing 30-day action
// breakdown.
type Result struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
	Breakdown  []ActionCount     `json:"breakdown_30d"`
}

// Service coordinates audit reads and retention.
type Service struct {
	repo            RepositoryPort
	logger          *slog.Logger
	defaultKeepDays int
	now             func() time.Time
}

// NewService constructs an audit service.
func NewService(repo RepositoryPort, logger *slog.Logger, defaultKeepDays int) *Service {
	if defaultKeepDays <= 0 {
		defaultKeepDays = 90
	}
	return &Service{repo: repo, logger: logger, defaultKeepDays: defaultKeepDays, now: time.Now}
}

// RecordTx appends an entry inside the caller's transaction. A failure here
// aborts the surrounding mutation: grant mutations must never go unaudited.
func (s *Service) RecordTx(ctx context.Context, q db.Querier, e Entry) error {
	if err := s.repo.InsertTx(ctx, q, e); err != nil {
		return fmt.Errorf("audit: record %s %s: %w", e.Action, e.ResourceType, err)
	}
	return nil
}

// Record appends an entry leniently: a write failure is logged with a visible
// warning but does not fail the triggering operation. Used for informational
// actions such as catalog scans.
func (s *Service) Record(ctx context.Context, e Entry) {
	if err := s.repo.Insert(ctx, e); err != nil && s.logger != nil {
		s.logger.Warn("audit write failed",
			slog.String("action", e.Action),
			slog.String("resource_type", e.ResourceType),
			slog.Any("error", err))
	}
}

// List returns a filtered page of entries and the 30-day action breakdown.
func (s *Service) List(ctx context.Context, f ListFilters) (Result, error) {
	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	entries, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Result{}, err
	}
	breakdown, err := s.repo.CountsByAction(ctx, s.now().Add(-breakdownWindow))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Entries:    entries,
		Pagination: shared.NewPagination(f.Page, f.PerPage, total),
		Breakdown:  breakdown,
	}, nil
}

// Purge removes entries strictly older than the cutoff. When before is zero
// the cutoff is now minus keepDays (service default when keepDays <= 0). The
// purge itself produces exactly one cleanup entry in the same transaction.
func (s *Service) Purge(ctx context.Context, actor Actor, before time.Time, keepDays int) (int64, error) {
	cutoff := before
	if cutoff.IsZero() {
		if keepDays <= 0 {
			keepDays = s.defaultKeepDays
		}
		cutoff = s.now().AddDate(0, 0, -keepDays)
	}
	if !cutoff.Before(s.now()) {
		return 0, fmt.Errorf("%w: purge cutoff must be in the past", shared.ErrValidation)
	}
	return s.repo.Purge(ctx, cutoff, actor)
}

const exportLimit = 1000

// Export returns the filtered entries for download, capped at exportLimit.
func (s *Service) Export(ctx context.Context, f ListFilters) ([]Entry, error) {
	f.Page = 1
	f.PerPage = exportLimit
	entries, _, err := s.repo.List(ctx, f)
	return entries, err
}
