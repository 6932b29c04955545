package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditCleanup is the task type for audit log retention cleanup.
	TaskAuditCleanup = "audit:cleanup"
)

// AuditCleanupPayload parameterises a retention run. KeepDays <= 0 means the
// service default.
type AuditCleanupPayload struct {
	KeepDays int `json:"keep_days"`
}

// NewAuditCleanupTask constructs an Asynq task.
func NewAuditCleanupTask(payload AuditCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, data), nil
}
