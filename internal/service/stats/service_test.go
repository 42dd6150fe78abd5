package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository/mocks"
)

func TestGetStatsIsCached(t *testing.T) {
	repo := new(mocks.StatsRepository)
	repo.On("Get", mock.Anything).Return(&model.Stats{TotalPatients: 3, PendingActions: 2}, nil).Once()
	svc := NewService(repo, time.Minute, time.Minute)

	first, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	first.TotalPatients = 99

	second, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.TotalPatients)
	repo.AssertNumberOfCalls(t, "Get", 1)
}

func TestGetStatsInvalidate(t *testing.T) {
	repo := new(mocks.StatsRepository)
	repo.On("Get", mock.Anything).Return(&model.Stats{TotalVisits: 1}, nil).Once()
	repo.On("Get", mock.Anything).Return(&model.Stats{TotalVisits: 2}, nil).Once()
	svc := NewService(repo, time.Minute, time.Minute)

	_, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	svc.Invalidate()

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalVisits)
}

func TestGetStatsErrorNotCached(t *testing.T) {
	repo := new(mocks.StatsRepository)
	repo.On("Get", mock.Anything).Return(nil, errors.New("timeout")).Once()
	repo.On("Get", mock.Anything).Return(&model.Stats{}, nil).Once()
	svc := NewService(repo, time.Minute, time.Minute)

	_, err := svc.GetStats(context.Background())
	assert.Error(t, err)
	_, err = svc.GetStats(context.Background())
	assert.NoError(t, err)
}
