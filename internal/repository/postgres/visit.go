package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

const visitColumns = `v.id, v.patient_id, v.organization_id, v.date, v.vitals, v.symptoms, v.diagnosis, v.priority, v.attended_by`

type visitRepository struct {
	BaseRepository
}

func NewVisitRepository(base BaseRepository) repository.VisitRepository {
	return &visitRepository{base}
}

func (r *visitRepository) Create(ctx context.Context, visit *model.Visit) error {
	query := `
		INSERT INTO clinical_visits (
			id, patient_id, organization_id, date, vitals,
			symptoms, diagnosis, priority, attended_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	visit.ID = uuid.New()
	if visit.Date.IsZero() {
		visit.Date = time.Now().UTC()
	}
	if visit.Priority == "" {
		visit.Priority = model.PriorityNormal
	}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			visit.ID,
			visit.PatientID,
			visit.OrganizationID,
			visit.Date,
			visit.Vitals,
			visit.Symptoms,
			visit.Diagnosis,
			visit.Priority,
			visit.AttendedBy,
		); err != nil {
			return err
		}
		return r.enqueue(ctx, tx, model.OutboxVisitCreated, visit)
	})
	return mapError(err, "create visit", "visit")
}

func (r *visitRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM clinical_visits v WHERE v.id = $1`

	var visit model.Visit
	if err := r.db.GetContext(ctx, &visit, query, id); err != nil {
		return nil, mapError(err, "get visit", "visit")
	}
	return &visit, nil
}

func (r *visitRepository) Update(ctx context.Context, visit *model.Visit, escalation *model.Escalation) error {
	query := `
		UPDATE clinical_visits
		SET diagnosis = $1, symptoms = $2, priority = $3
		WHERE id = $4
	`

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			visit.Diagnosis,
			visit.Symptoms,
			visit.Priority,
			visit.ID,
		)
		if err != nil {
			return err
		}
		if err := requireRows(result, "visit"); err != nil {
			return err
		}
		if err := r.enqueue(ctx, tx, model.OutboxVisitUpdated, visit); err != nil {
			return err
		}
		if escalation != nil {
			return r.enqueue(ctx, tx, model.OutboxVisitEscalated, escalation)
		}
		return nil
	})
	return mapError(err, "update visit", "visit")
}

// emergencyRow flattens the emergency join for scanning.
type emergencyRow struct {
	model.Visit
	PatientName       string     `db:"p_name"`
	PatientUniqueID   string     `db:"p_unique_id"`
	PatientDOB        model.Date `db:"p_dob"`
	PatientGender     string     `db:"p_gender"`
	PatientContact    string     `db:"p_contact"`
	PatientBloodGroup string     `db:"p_blood_group"`
	PatientCreatedAt  time.Time  `db:"p_created_at"`
	AttendingUserName *string    `db:"attending_user_name"`
}

func (r *visitRepository) ListActiveEmergencies(ctx context.Context) ([]*model.EmergencyVisit, error) {
	query := `
		SELECT ` + visitColumns + `,
			p.name AS p_name, p.unique_id AS p_unique_id, p.dob AS p_dob,
			p.gender AS p_gender, p.contact AS p_contact,
			p.blood_group AS p_blood_group, p.created_at AS p_created_at,
			u.name AS attending_user_name
		FROM clinical_visits v
		JOIN patients p ON p.id = v.patient_id
		LEFT JOIN users u ON u.id = v.attended_by
		WHERE v.priority IN ('emergency', 'critical')
		ORDER BY v.date DESC
	`

	var rows []emergencyRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, mapError(err, "list active emergencies", "visit")
	}

	visits := make([]*model.EmergencyVisit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, &model.EmergencyVisit{
			Visit: row.Visit,
			Patient: model.Patient{
				Base:       model.Base{ID: row.PatientID, CreatedAt: row.PatientCreatedAt},
				UniqueID:   row.PatientUniqueID,
				Name:       row.PatientName,
				DOB:        row.PatientDOB,
				Gender:     row.PatientGender,
				Contact:    row.PatientContact,
				BloodGroup: row.PatientBloodGroup,
			},
			AttendingUserName: row.AttendingUserName,
		})
	}
	return visits, nil
}

func (r *visitRepository) ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]model.VisitDetail, error) {
	query := `
		SELECT ` + visitColumns + `,
			COALESCE(o.name, 'Unknown') AS org_name,
			u.name AS staff_name
		FROM clinical_visits v
		LEFT JOIN organizations o ON o.id = v.organization_id
		LEFT JOIN users u ON u.id = v.attended_by
		WHERE v.patient_id = $1
		ORDER BY v.date DESC
	`

	visits := []model.VisitDetail{}
	if err := r.db.SelectContext(ctx, &visits, query, patientID); err != nil {
		return nil, mapError(err, "list visits", "visit")
	}
	return visits, nil
}
