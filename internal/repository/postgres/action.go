package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
)

const actionColumns = `a.id, a.patient_id, a.visit_id, a.author_id, a.from_organization_id,
	a.type, a.status, a.description, a.payload, a.notes, a.created_at, a.updated_at,
	a.completed_at, a.completed_by, a.completed_by_organization_id, a.version`

type actionRepository struct {
	BaseRepository
}

func NewActionRepository(base BaseRepository) repository.ActionRepository {
	return &actionRepository{base}
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) error {
	query := `
		INSERT INTO clinical_actions (
			id, patient_id, visit_id, author_id, from_organization_id,
			type, status, description, payload, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now().UTC()
	action.ID = uuid.New()
	action.Status = model.ActionStatusPending
	action.CreatedAt = now
	action.UpdatedAt = now
	action.Version = 1

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			action.ID,
			action.PatientID,
			action.VisitID,
			action.AuthorID,
			action.FromOrganizationID,
			action.Type,
			action.Status,
			action.Description,
			action.Payload,
			action.CreatedAt,
			action.UpdatedAt,
			action.Version,
		); err != nil {
			return err
		}
		return r.enqueue(ctx, tx, model.OutboxActionCreated, action)
	})
	return mapError(err, "create action", "action")
}

func (r *actionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM clinical_actions a WHERE a.id = $1`

	var action model.Action
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		return nil, mapError(err, "get action", "action")
	}
	return &action, nil
}

func (r *actionRepository) UpdateTransition(ctx context.Context, action *model.Action, readVersion int) error {
	query := `
		UPDATE clinical_actions
		SET status = $1,
			notes = $2,
			updated_at = $3,
			completed_at = $4,
			completed_by = $5,
			completed_by_organization_id = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
	`

	action.UpdatedAt = time.Now().UTC()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			action.Status,
			action.Notes,
			action.UpdatedAt,
			action.CompletedAt,
			action.CompletedBy,
			action.CompletedByOrganizationID,
			action.ID,
			readVersion,
		)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS (SELECT 1 FROM clinical_actions WHERE id = $1)`, action.ID); err != nil {
				return err
			}
			if !exists {
				return apperrors.NewNotFound("action", nil)
			}
			return apperrors.NewConflict("action was modified by another request", nil)
		}

		action.Version = readVersion + 1
		return r.enqueue(ctx, tx, model.OutboxActionUpdated, action)
	})
	return mapError(err, "update action", "action")
}

func (r *actionRepository) ListByTypes(ctx context.Context, types []model.ActionType) ([]*model.QueueItem, error) {
	query := `
		SELECT ` + actionColumns + `,
			COALESCE(p.name, 'Unknown') AS patient_name,
			COALESCE(p.unique_id, 'N/A') AS patient_unique_id,
			COALESCE(u.name, 'Unknown') AS author_name,
			COALESCE(o.name, 'Unknown') AS org_name
		FROM clinical_actions a
		LEFT JOIN patients p ON p.id = a.patient_id
		LEFT JOIN users u ON u.id = a.author_id
		LEFT JOIN organizations o ON o.id = a.from_organization_id
		WHERE a.type = ANY($1)
		ORDER BY a.created_at DESC
	`

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	items := []*model.QueueItem{}
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(names)); err != nil {
		return nil, mapError(err, "list actions", "action")
	}
	return items, nil
}

func (r *actionRepository) ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]model.ActionDetail, error) {
	query := `
		SELECT ` + actionColumns + `,
			COALESCE(u.name, 'Unknown') AS author_name,
			COALESCE(o.name, 'Unknown') AS org_name
		FROM clinical_actions a
		LEFT JOIN users u ON u.id = a.author_id
		LEFT JOIN organizations o ON o.id = a.from_organization_id
		WHERE a.patient_id = $1
		ORDER BY a.created_at DESC
	`

	actions := []model.ActionDetail{}
	if err := r.db.SelectContext(ctx, &actions, query, patientID); err != nil {
		return nil, mapError(err, "list patient actions", "action")
	}
	return actions, nil
}
