// Package patient manages the shared patient registry.
package patient

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/fanout"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/logger"
)

const (
	uniqueIDAttempts = 5
	searchLimit      = 50
)

type PatientServicer interface {
	RegisterPatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListPatients(ctx context.Context, page model.Pagination) ([]*model.Patient, error)
	SearchPatients(ctx context.Context, query string) ([]*model.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) (*model.PatientDeletion, error)
	GetPatientDetails(ctx context.Context, id uuid.UUID) (*model.PatientDetails, error)
}

type Service struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	actions  repository.ActionRepository
	notifier fanout.Notifier
	log      *logger.Logger
	newID    func() string
}

func NewService(
	patients repository.PatientRepository,
	visits repository.VisitRepository,
	actions repository.ActionRepository,
	notifier fanout.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		patients: patients,
		visits:   visits,
		actions:  actions,
		notifier: notifier,
		log:      log,
		newID:    generateUniqueID,
	}
}

// generateUniqueID returns PAT- followed by six digits, never starting with 0.
func generateUniqueID() string {
	return fmt.Sprintf("PAT-%d", 100000+rand.IntN(900000))
}

func (s *Service) RegisterPatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if req.DOB.IsZero() {
		return nil, apperrors.NewValidation("dob", "dob is required")
	}

	patient := &model.Patient{
		Name:       strings.TrimSpace(req.Name),
		DOB:        req.DOB,
		Gender:     req.Gender,
		Contact:    req.Contact,
		BloodGroup: req.BloodGroup,
	}

	var err error
	for attempt := 1; attempt <= uniqueIDAttempts; attempt++ {
		patient.UniqueID = s.newID()
		err = s.patients.Create(ctx, patient)
		if err == nil {
			break
		}
		if !isUniqueIDCollision(err) {
			return nil, fmt.Errorf("failed to register patient: %w", err)
		}
		s.log.Warn("patient unique id collision", "unique_id", patient.UniqueID, "attempt", attempt)
	}
	if err != nil {
		return nil, apperrors.NewConflict("could not allocate a unique patient id", err)
	}

	s.log.Info("patient registered", "patient_id", patient.ID, "unique_id", patient.UniqueID)
	s.notifier.Notify(ctx, model.NewPatientEvent(patient))
	return patient, nil
}

func isUniqueIDCollision(err error) bool {
	appErr, ok := apperrors.As(err)
	return ok && appErr.Code == apperrors.ErrConflict && appErr.Field == "uniqueId"
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, page model.Pagination) ([]*model.Patient, error) {
	patients, err := s.patients.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// SearchPatients matches name or unique ID. An empty query matches nothing.
func (s *Service) SearchPatients(ctx context.Context, query string) ([]*model.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Patient{}, nil
	}

	patients, err := s.patients.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = strings.TrimSpace(*req.Name)
	}
	if req.DOB != nil && !req.DOB.IsZero() {
		patient.DOB = *req.DOB
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Contact != nil {
		patient.Contact = *req.Contact
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = *req.BloodGroup
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

// DeletePatient removes the patient with every visit and action tied to it.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) (*model.PatientDeletion, error) {
	deletion, err := s.patients.DeleteCascade(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("patient deleted",
		"patient_id", id,
		"visits_deleted", deletion.VisitsDeleted,
		"actions_deleted", deletion.ActionsDeleted,
	)
	return deletion, nil
}

func (s *Service) GetPatientDetails(ctx context.Context, id uuid.UUID) (*model.PatientDetails, error) {
	patient, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	visits, err := s.visits.ListDetailsByPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	actions, err := s.actions.ListDetailsByPatient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}

	if visits == nil {
		visits = []model.VisitDetail{}
	}
	if actions == nil {
		actions = []model.ActionDetail{}
	}
	return &model.PatientDetails{Patient: patient, Visits: visits, Actions: actions}, nil
}

var _ PatientServicer = (*Service)(nil)
