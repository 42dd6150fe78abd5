package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/clinical-api/internal/model"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db     *sqlx.DB
	outbox bool
}

// NewBaseRepository creates a new base repository. When outbox is true every
// mutation also records an outbox event in its transaction.
func NewBaseRepository(db *sqlx.DB, outbox bool) BaseRepository {
	return BaseRepository{db: db, outbox: outbox}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// enqueue records an outbox event inside tx.
func (r *BaseRepository) enqueue(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	if !r.outbox {
		return nil
	}

	evt, err := model.NewOutboxEvent(eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, query,
		evt.ID,
		evt.EventType,
		[]byte(evt.Payload),
		evt.Status,
		evt.CreatedAt,
		evt.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
