package postgres

import (
	"context"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

type statsRepository struct {
	BaseRepository
}

func NewStatsRepository(base BaseRepository) repository.StatsRepository {
	return &statsRepository{base}
}

func (r *statsRepository) Get(ctx context.Context) (*model.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM patients) AS total_patients,
			(SELECT COUNT(*) FROM clinical_visits) AS total_visits,
			(SELECT COUNT(*) FROM clinical_actions WHERE status = 'pending') AS pending_actions,
			(SELECT COUNT(*) FROM clinical_actions WHERE status = 'completed') AS completed_actions
	`

	var stats model.Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, mapError(err, "get stats", "stats")
	}
	return &stats, nil
}
