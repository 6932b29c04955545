package projects

import (
	"context"
)

// Service owns project directory reads.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns the active project directory.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.ListActive(ctx)
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, id string) (Project, error) {
	return s.repo.GetByID(ctx, id)
}

// SalesControl assembles the unit inventory summary for a project. Statuses
// with no units still appear with a zero count.
func (s *Service) SalesControl(ctx context.Context, projectID string) (SalesControl, error) {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return SalesControl{}, err
	}
	counts, err := s.repo.UnitCounts(ctx, projectID)
	if err != nil {
		return SalesControl{}, err
	}
	for _, status := range []string{UnitAvailable, UnitReserved, UnitSold} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	units, err := s.repo.Units(ctx, projectID)
	if err != nil {
		return SalesControl{}, err
	}
	if units == nil {
		units = []Unit{}
	}
	return SalesControl{ProjectID: projectID, Counts: counts, Units: units}, nil
}
