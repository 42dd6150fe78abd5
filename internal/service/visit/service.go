// Package visit records encounters and surfaces urgent ones.
package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/fanout"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/logger"
)

type VisitServicer interface {
	CreateVisit(ctx context.Context, req *model.CreateVisitRequest) (*model.Visit, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, req *model.UpdateVisitRequest) (*model.Visit, error)
	GetActiveEmergencies(ctx context.Context) ([]*model.EmergencyVisit, error)
}

type Service struct {
	visits   repository.VisitRepository
	patients repository.PatientRepository
	orgs     repository.OrganizationRepository
	users    repository.UserRepository
	notifier fanout.Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewService(
	visits repository.VisitRepository,
	patients repository.PatientRepository,
	orgs repository.OrganizationRepository,
	users repository.UserRepository,
	notifier fanout.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		visits:   visits,
		patients: patients,
		orgs:     orgs,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateVisit(ctx context.Context, req *model.CreateVisitRequest) (*model.Visit, error) {
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidation("priority", fmt.Sprintf("unknown priority %q", priority))
	}

	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		return nil, referenceError(err, "patientId")
	}
	if _, err := s.orgs.GetByID(ctx, req.OrganizationID); err != nil {
		return nil, referenceError(err, "organizationId")
	}
	if req.AttendedBy != nil {
		if _, err := s.users.GetByID(ctx, *req.AttendedBy); err != nil {
			return nil, referenceError(err, "attendedBy")
		}
	}

	visit := &model.Visit{
		PatientID:      req.PatientID,
		OrganizationID: req.OrganizationID,
		Date:           s.now(),
		Vitals:         req.Vitals,
		Symptoms:       req.Symptoms,
		Diagnosis:      req.Diagnosis,
		Priority:       priority,
		AttendedBy:     req.AttendedBy,
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}

	s.log.Info("visit created", "visit_id", visit.ID, "patient_id", visit.PatientID, "priority", visit.Priority)
	return visit, nil
}

// UpdateVisit applies a partial update. Moving a normal visit to emergency
// or critical also records an escalation.
func (s *Service) UpdateVisit(ctx context.Context, id uuid.UUID, req *model.UpdateVisitRequest) (*model.Visit, error) {
	visit, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := visit.Priority
	if req.Diagnosis != nil {
		visit.Diagnosis = *req.Diagnosis
	}
	if req.Symptoms != nil {
		visit.Symptoms = *req.Symptoms
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, apperrors.NewValidation("priority", fmt.Sprintf("unknown priority %q", *req.Priority))
		}
		visit.Priority = *req.Priority
	}

	var escalation *model.Escalation
	if !previous.Urgent() && visit.Priority.Urgent() {
		escalation, err = s.escalation(ctx, visit, previous)
		if err != nil {
			return nil, err
		}
	}

	if err := s.visits.Update(ctx, visit, escalation); err != nil {
		return nil, fmt.Errorf("failed to update visit: %w", err)
	}

	if escalation != nil {
		s.log.Warn("visit escalated",
			"visit_id", visit.ID,
			"patient", escalation.UniqueID,
			"from", previous,
			"to", visit.Priority,
		)
	}
	s.notifier.Notify(ctx, model.UpdateVisitEvent(visit))
	return visit, nil
}

func (s *Service) escalation(ctx context.Context, visit *model.Visit, from model.Priority) (*model.Escalation, error) {
	patient, err := s.patients.GetByID(ctx, visit.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient for escalation: %w", err)
	}
	return &model.Escalation{
		Visit:       visit,
		PatientName: patient.Name,
		UniqueID:    patient.UniqueID,
		From:        from,
		To:          visit.Priority,
		EscalatedAt: s.now(),
	}, nil
}

// GetActiveEmergencies lists emergency and critical visits, newest first.
func (s *Service) GetActiveEmergencies(ctx context.Context) ([]*model.EmergencyVisit, error) {
	visits, err := s.visits.ListActiveEmergencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active emergencies: %w", err)
	}
	if visits == nil {
		visits = []*model.EmergencyVisit{}
	}
	return visits, nil
}

func referenceError(err error, field string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewValidation(field, field+" does not reference an existing record")
	}
	return err
}

var _ VisitServicer = (*Service)(nil)
