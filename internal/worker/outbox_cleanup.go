package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/mediconnect/clinical-api/internal/repository"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/metrics"
)

// OutboxCleanupWorker purges processed outbox rows older than the retention window.
type OutboxCleanupWorker struct {
	repo            repository.OutboxRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewOutboxCleanupWorker(
	repo repository.OutboxRepository,
	retention time.Duration,
	cleanupInterval time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          logger,
		metrics:         metrics,
		now:             time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Outbox cleanup failed")
			}
		}
	}
}

// Cleanup deletes processed events older than the retention window and
// refreshes the pending gauge.
func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		w.metrics.DatabaseOperations.WithLabelValues("purge_processed", "error").Inc()
		return 0, fmt.Errorf("failed to clean up outbox: %w", err)
	}
	w.metrics.DatabaseOperations.WithLabelValues("purge_processed", "success").Inc()
	w.metrics.OutboxPurged.Add(float64(rows))

	if pending, err := w.repo.CountPending(ctx); err == nil {
		w.metrics.OutboxPending.Set(float64(pending))
	}

	if rows > 0 {
		w.logger.Info("Purged processed outbox events", "rows", rows, "cutoff", cutoff)
	}
	return rows, nil
}
