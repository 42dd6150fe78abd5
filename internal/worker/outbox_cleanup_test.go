package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/clinical-api/internal/repository/mocks"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/metrics"
)

func TestCleanupDeletesBeforeRetentionCutoff(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test", "worker")
	w := NewOutboxCleanupWorker(repo, 24*time.Hour, time.Hour, logger.Nop(), m)
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	repo.On("DeleteProcessedBefore", mock.Anything, now.Add(-24*time.Hour)).Return(int64(7), nil).Once()
	repo.On("CountPending", mock.Anything).Return(int64(3), nil).Once()

	rows, err := w.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), rows)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.OutboxPurged))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.OutboxPending))
	repo.AssertExpectations(t)
}

func TestCleanupReportsDeleteError(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	w := NewOutboxCleanupWorker(repo, time.Hour, time.Hour, logger.Nop(),
		metrics.NewMetrics(prometheus.NewRegistry(), "test", "worker"))

	repo.On("DeleteProcessedBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("deadlock"))

	_, err := w.Cleanup(context.Background())
	assert.ErrorContains(t, err, "deadlock")
	repo.AssertNotCalled(t, "CountPending", mock.Anything)
}

func TestStartStopsOnCancel(t *testing.T) {
	repo := new(mocks.OutboxRepository)
	w := NewOutboxCleanupWorker(repo, time.Hour, time.Hour, logger.Nop(),
		metrics.NewMetrics(prometheus.NewRegistry(), "test", "worker"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup worker did not stop")
	}
}
