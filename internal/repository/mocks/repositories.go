// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

type OrganizationRepository struct {
	mock.Mock
}

func (m *OrganizationRepository) CreateWithAdmin(ctx context.Context, org *model.Organization, admin *model.User) error {
	args := m.Called(ctx, org, admin)
	return args.Error(0)
}

func (m *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *OrganizationRepository) GetByCode(ctx context.Context, code string) (*model.Organization, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *OrganizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Organization), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) GetByEmployeeID(ctx context.Context, orgID uuid.UUID, employeeID string) (*model.User, error) {
	args := m.Called(ctx, orgID, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, orgID *uuid.UUID) ([]*model.User, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type PatientRepository struct {
	mock.Mock
}

func (m *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *PatientRepository) List(ctx context.Context, page model.Pagination) ([]*model.Patient, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Patient), args.Error(1)
}

func (m *PatientRepository) Search(ctx context.Context, query string, limit int) ([]*model.Patient, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Patient), args.Error(1)
}

func (m *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *PatientRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (*model.PatientDeletion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientDeletion), args.Error(1)
}

type VisitRepository struct {
	mock.Mock
}

func (m *VisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *VisitRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visit), args.Error(1)
}

func (m *VisitRepository) Update(ctx context.Context, visit *model.Visit, escalation *model.Escalation) error {
	args := m.Called(ctx, visit, escalation)
	return args.Error(0)
}

func (m *VisitRepository) ListActiveEmergencies(ctx context.Context) ([]*model.EmergencyVisit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EmergencyVisit), args.Error(1)
}

func (m *VisitRepository) ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]model.VisitDetail, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VisitDetail), args.Error(1)
}

type ActionRepository struct {
	mock.Mock
}

func (m *ActionRepository) Create(ctx context.Context, action *model.Action) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *ActionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Action), args.Error(1)
}

func (m *ActionRepository) UpdateTransition(ctx context.Context, action *model.Action, readVersion int) error {
	args := m.Called(ctx, action, readVersion)
	return args.Error(0)
}

func (m *ActionRepository) ListByTypes(ctx context.Context, types []model.ActionType) ([]*model.QueueItem, error) {
	args := m.Called(ctx, types)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QueueItem), args.Error(1)
}

func (m *ActionRepository) ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]model.ActionDetail, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ActionDetail), args.Error(1)
}

type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) Get(ctx context.Context) (*model.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) ClaimBatch(ctx context.Context, limit int) (repository.OutboxBatch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.OutboxBatch), args.Error(1)
}

func (m *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type OutboxBatch struct {
	mock.Mock
}

func (m *OutboxBatch) Events() []*model.OutboxEvent {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*model.OutboxEvent)
}

func (m *OutboxBatch) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *OutboxBatch) MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error {
	return m.Called(ctx, id, errMsg, retryAt).Error(0)
}

func (m *OutboxBatch) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *OutboxBatch) Commit() error {
	return m.Called().Error(0)
}

func (m *OutboxBatch) Rollback() error {
	return m.Called().Error(0)
}

var (
	_ repository.OrganizationRepository = (*OrganizationRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.PatientRepository      = (*PatientRepository)(nil)
	_ repository.VisitRepository        = (*VisitRepository)(nil)
	_ repository.ActionRepository       = (*ActionRepository)(nil)
	_ repository.StatsRepository        = (*StatsRepository)(nil)
	_ repository.OutboxRepository       = (*OutboxRepository)(nil)
	_ repository.OutboxBatch            = (*OutboxBatch)(nil)
)
