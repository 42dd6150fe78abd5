package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
)

const patientColumns = `id, unique_id, name, dob, gender, contact, blood_group, created_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

// Create inserts the patient with the caller-assigned UniqueID. A collision
// surfaces as a conflict on the uniqueId field.
func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	patient.ID = uuid.New()
	patient.CreatedAt = time.Now().UTC()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			patient.ID,
			patient.UniqueID,
			patient.Name,
			patient.DOB,
			patient.Gender,
			patient.Contact,
			patient.BloodGroup,
			patient.CreatedAt,
		); err != nil {
			return err
		}
		return r.enqueue(ctx, tx, model.OutboxPatientCreated, patient)
	})
	return mapError(err, "create patient", "patient")
}

func (r *patientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, mapError(err, "get patient", "patient")
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, page model.Pagination) ([]*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query, page.Limit(), page.Offset()); err != nil {
		return nil, mapError(err, "list patients", "patient")
	}
	return patients, nil
}

// Search matches the query against name or unique ID, case-insensitively.
func (r *patientRepository) Search(ctx context.Context, q string, limit int) ([]*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE name ILIKE $1 OR unique_id ILIKE $1
		ORDER BY name ASC
		LIMIT $2
	`

	patients := []*model.Patient{}
	pattern := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	if err := r.db.SelectContext(ctx, &patients, query, pattern, limit); err != nil {
		return nil, mapError(err, "search patients", "patient")
	}
	return patients, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, dob = $2, gender = $3, contact = $4, blood_group = $5
		WHERE id = $6
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			patient.Name,
			patient.DOB,
			patient.Gender,
			patient.Contact,
			patient.BloodGroup,
			patient.ID,
		)
		if err != nil {
			return err
		}
		if err := requireRows(result, "patient"); err != nil {
			return err
		}
		return r.enqueue(ctx, tx, model.OutboxPatientUpdated, patient)
	})
	return mapError(err, "update patient", "patient")
}

func (r *patientRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (*model.PatientDeletion, error) {
	deletion := &model.PatientDeletion{PatientID: id}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM clinical_actions WHERE patient_id = $1`, id)
		if err != nil {
			return err
		}
		byPatient, _ := result.RowsAffected()

		// Actions can reference a visit of this patient while pointing at a
		// different patient_id.
		result, err = tx.ExecContext(ctx, `
			DELETE FROM clinical_actions
			WHERE visit_id IN (SELECT id FROM clinical_visits WHERE patient_id = $1)
		`, id)
		if err != nil {
			return err
		}
		byVisit, _ := result.RowsAffected()
		deletion.ActionsDeleted = byPatient + byVisit

		result, err = tx.ExecContext(ctx, `DELETE FROM clinical_visits WHERE patient_id = $1`, id)
		if err != nil {
			return err
		}
		deletion.VisitsDeleted, _ = result.RowsAffected()

		result, err = tx.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if err := requireRows(result, "patient"); err != nil {
			return err
		}

		deletion.DeletedAt = time.Now().UTC()
		return r.enqueue(ctx, tx, model.OutboxPatientDeleted, deletion)
	})
	if err != nil {
		return nil, mapError(err, "delete patient", "patient")
	}
	return deletion, nil
}

type rowsResult interface {
	RowsAffected() (int64, error)
}

// requireRows returns NotFound when the statement touched nothing.
func requireRows(result rowsResult, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NewNotFound(resource, nil)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
