package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/model"
)

type (
	OrganizationRepository interface {
		// CreateWithAdmin inserts the organization and its default admin atomically.
		CreateWithAdmin(ctx context.Context, org *model.Organization, admin *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
		GetByCode(ctx context.Context, code string) (*model.Organization, error)
		List(ctx context.Context) ([]*model.Organization, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmployeeID(ctx context.Context, orgID uuid.UUID, employeeID string) (*model.User, error)
		// List returns staff ordered by role, optionally restricted to one organization.
		List(ctx context.Context, orgID *uuid.UUID) ([]*model.User, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context, page model.Pagination) ([]*model.Patient, error)
		Search(ctx context.Context, query string, limit int) ([]*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// DeleteCascade removes the patient, its visits and every action that
		// references either, in one transaction.
		DeleteCascade(ctx context.Context, id uuid.UUID) (*model.PatientDeletion, error)
	}

	VisitRepository interface {
		Create(ctx context.Context, visit *model.Visit) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Visit, error)
		// Update persists diagnosis, symptoms and priority. A non-nil escalation
		// is recorded in the same transaction.
		Update(ctx context.Context, visit *model.Visit, escalation *model.Escalation) error
		ListActiveEmergencies(ctx context.Context) ([]*model.EmergencyVisit, error)
		ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]model.VisitDetail, error)
	}

	ActionRepository interface {
		Create(ctx context.Context, action *model.Action) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.Action, error)
		// UpdateTransition writes status, notes and completion fields if the
		// stored version still equals readVersion.
		UpdateTransition(ctx context.Context, action *model.Action, readVersion int) error
		ListByTypes(ctx context.Context, types []model.ActionType) ([]*model.QueueItem, error)
		ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]model.ActionDetail, error)
	}

	StatsRepository interface {
		Get(ctx context.Context) (*model.Stats, error)
	}

	// OutboxBatch is a set of claimed events. Rows stay locked until Commit or
	// Rollback.
	OutboxBatch interface {
		Events() []*model.OutboxEvent
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		Commit() error
		Rollback() error
	}

	OutboxRepository interface {
		ClaimBatch(ctx context.Context, limit int) (OutboxBatch, error)
		CountPending(ctx context.Context) (int64, error)
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
