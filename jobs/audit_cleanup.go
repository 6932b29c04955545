package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-homes/meridian/internal/audit"
)

// AuditCleanupJob enforces the audit log retention window.
type AuditCleanupJob struct {
	Service *audit.Service
	Logger  *slog.Logger
}

// NewAuditCleanupJob initialises the cleanup handler.
func NewAuditCleanupJob(service *audit.Service, logger *slog.Logger) *AuditCleanupJob {
	return &AuditCleanupJob{Service: service, Logger: logger}
}

// Handle executes one retention run. The purge records its own cleanup entry
// so the run is visible in the log it trims.
func (j *AuditCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("audit cleanup: handler not configured")
	}
	var payload AuditCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	purged, err := j.Service.Purge(ctx, audit.Actor{}, time.Time{}, payload.KeepDays)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("audit cleanup failed", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("audit cleanup complete",
			slog.Int64("purged", purged),
			slog.Duration("took", time.Since(start)))
	}
	return nil
}
