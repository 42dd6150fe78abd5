// Package stats serves the dashboard counters.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

const cacheKey = "dashboard"

// Service caches counters for a short TTL; the dashboard polls frequently.
type Service struct {
	repo  repository.StatsRepository
	cache *cache.Cache
}

func NewService(repo repository.StatsRepository, ttl, cleanupInterval time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (s *Service) GetStats(ctx context.Context) (*model.Stats, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		stats := *cached.(*model.Stats)
		return &stats, nil
	}

	stats, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	s.cache.SetDefault(cacheKey, stats)
	out := *stats
	return &out, nil
}

// Invalidate drops the cached counters.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
}
