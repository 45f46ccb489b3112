package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/scheduler"
	"github.com/spec-kit/account-service/internal/service"
)

// CleanupWorker consumes fired cleanup jobs and removes accounts that never
// activated within their grace period.
type CleanupWorker struct {
	auth    *service.AuthService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCleanupWorker builds the worker.
func NewCleanupWorker(authService *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) *CleanupWorker {
	return &CleanupWorker{auth: authService, metrics: metrics, logger: logger}
}

// Start runs the scheduler poll loop in a goroutine until ctx is cancelled.
func (w *CleanupWorker) Start(ctx context.Context, sched *scheduler.Scheduler) {
	go sched.Run(ctx, w.Handle)
}

// Handle processes one fired job. Errors requeue the job, so only transient
// failures are returned; malformed payloads are dropped with an error log.
func (w *CleanupWorker) Handle(ctx context.Context, job scheduler.Job) error {
	var payload service.CleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		w.logger.Error("malformed cleanup payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	outcome, err := w.auth.CleanupInactiveUser(ctx, payload.UserID)
	if err != nil {
		w.metrics.RecordCleanup("failed")
		return fmt.Errorf("cleanup user %s: %w", payload.UserID, err)
	}

	w.metrics.RecordCleanup(string(outcome))
	w.logger.Debug("cleanup job done",
		zap.String("user_id", payload.UserID),
		zap.String("outcome", string(outcome)))
	return nil
}
