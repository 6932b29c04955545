package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meridian-homes/meridian/internal/platform/db"
	"github.com/meridian-homes/meridian/internal/shared"
)

type stubRepo struct {
	insertErr   error
	inserted    []Entry
	listEntries []Entry
	listTotal   int
	lastFilters ListFilters
	purgeCutoff time.Time
	purged      int64
}

func (s *stubRepo) Insert(ctx context.Context, e Entry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, e)
	return nil
}

func (s *stubRepo) InsertTx(ctx context.Context, q db.Querier, e Entry) error {
	return s.Insert(ctx, e)
}

func (s *stubRepo) List(ctx context.Context, f ListFilters) ([]Entry, int, error) {
	s.lastFilters = f
	return s.listEntries, s.listTotal, nil
}

func (s *stubRepo) CountsByAction(ctx context.Context, since time.Time) ([]ActionCount, error) {
	return []ActionCount{{Action: ActionGrant, Count: 3}}, nil
}

func (s *stubRepo) Purge(ctx context.Context, cutoff time.Time, actor Actor) (int64, error) {
	s.purgeCutoff = cutoff
	return s.purged, nil
}

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), 90)
}

func TestRecordTxPropagatesFailure(t *testing.T) {
	repo := &stubRepo{insertErr: errors.New("disk full")}
	svc := newTestService(repo)
	err := svc.RecordTx(context.Background(), nil, Actor{UserID: 1}.Entry(ActionGrant, ResourceRoleGrant, "x", ""))
	if err == nil {
		t.Fatal("strict recording must surface the write failure")
	}
}

func TestRecordIsLenient(t *testing.T) {
	repo := &stubRepo{insertErr: errors.New("down")}
	svc := newTestService(repo)
	// Must not panic or fail the caller.
	svc.Record(context.Background(), Actor{}.Entry(ActionScan, ResourcePermissionCatalog, "", "scan"))
}

func TestListDefaultsAndClamping(t *testing.T) {
	repo := &stubRepo{listEntries: []Entry{{ID: 1}}, listTotal: 1}
	svc := newTestService(repo)

	if _, err := svc.List(context.Background(), ListFilters{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilters.Page != 1 || repo.lastFilters.PerPage != 20 {
		t.Fatalf("defaults = page %d per_page %d", repo.lastFilters.Page, repo.lastFilters.PerPage)
	}

	if _, err := svc.List(context.Background(), ListFilters{PerPage: 9999}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilters.PerPage != 100 {
		t.Fatalf("per_page not clamped: %d", repo.lastFilters.PerPage)
	}
}

func TestListIncludesBreakdown(t *testing.T) {
	repo := &stubRepo{listEntries: []Entry{{ID: 1}}, listTotal: 41}
	svc := newTestService(repo)
	res, err := svc.List(context.Background(), ListFilters{Page: 2, PerPage: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Breakdown) != 1 || res.Breakdown[0].Action != ActionGrant {
		t.Fatalf("breakdown = %+v", res.Breakdown)
	}
	if res.Pagination.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", res.Pagination.TotalPages)
	}
}

func TestPurgeDefaultsToKeepDays(t *testing.T) {
	repo := &stubRepo{purged: 5}
	svc := newTestService(repo)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	purged, err := svc.Purge(context.Background(), Actor{UserID: 1}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 5 {
		t.Fatalf("purged = %d", purged)
	}
	want := now.AddDate(0, 0, -90)
	if !repo.purgeCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", repo.purgeCutoff, want)
	}
}

func TestPurgeRejectsFutureCutoff(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)
	_, err := svc.Purge(context.Background(), Actor{}, time.Now().Add(time.Hour), 0)
	if !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestPurgeExplicitKeepDays(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.Purge(context.Background(), Actor{}, time.Time{}, 30); err != nil {
		t.Fatalf("purge: %v", err)
	}
	want := now.AddDate(0, 0, -30)
	if !repo.purgeCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", repo.purgeCutoff, want)
	}
}
