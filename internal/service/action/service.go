// Package action implements the clinical action lifecycle.
package action

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

type ActionServicer interface {
	CreateAction(ctx context.Context, req *model.CreateActionRequest) (*model.Action, error)
	CreateTransfer(ctx context.Context, req *model.CreateTransferRequest) (*model.Action, error)
	TransitionAction(ctx context.Context, id uuid.UUID, req *model.TransitionActionRequest) (*model.Action, error)
	GetAction(ctx context.Context, id uuid.UUID) (*model.Action, error)
}

// Repositories groups the stores the engine reads and writes.
type Repositories struct {
	Actions       repository.ActionRepository
	Patients      repository.PatientRepository
	Visits        repository.VisitRepository
	Users         repository.UserRepository
	Organizations repository.OrganizationRepository
}

type Service struct {
	repos    Repositories
	notifier fanout.Notifier
	strict   bool
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the engine. With strict unset any valid status may
// follow any other.
func NewService(repos Repositories, notifier fanout.Notifier, strict bool, log *logger.Logger) *Service {
	return &Service{
		repos:    repos,
		notifier: notifier,
		strict:   strict,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateAction(ctx context.Context, req *model.CreateActionRequest) (*model.Action, error) {
	if !req.Type.Valid() {
		return nil, apperrors.NewValidation("type", fmt.Sprintf("unknown action type %q", req.Type))
	}
	if req.Type == model.ActionTypeTransfer {
		return nil, apperrors.NewValidation("type", "transfers must be created through the transfer endpoint")
	}
	if !req.Payload.IsNone() {
		return nil, apperrors.NewValidation("payload", "payload is only allowed on transfer actions")
	}
	if req.Description == "" {
		return nil, apperrors.NewValidation("description", "description is required")
	}

	if err := s.checkReferences(ctx, req.PatientID, req.AuthorID, req.FromOrganizationID); err != nil {
		return nil, err
	}
	if req.VisitID != nil {
		visit, err := s.repos.Visits.GetByID(ctx, *req.VisitID)
		if err != nil {
			return nil, referenceError(err, "visitId")
		}
		if visit.PatientID != req.PatientID {
			return nil, apperrors.NewValidation("visitId", "visit does not belong to the patient")
		}
	}

	action := &model.Action{
		PatientID:          req.PatientID,
		VisitID:            req.VisitID,
		AuthorID:           req.AuthorID,
		FromOrganizationID: req.FromOrganizationID,
		Type:               req.Type,
		Description:        req.Description,
	}
	if err := s.repos.Actions.Create(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}

	s.log.Info("action created",
		"action_id", action.ID,
		"type", action.Type,
		"patient_id", action.PatientID,
	)
	s.notifier.Notify(ctx, model.NewActionEvent(action))
	return action, nil
}

func (s *Service) CreateTransfer(ctx context.Context, req *model.CreateTransferRequest) (*model.Action, error) {
	if req.TargetOrgID == nil || *req.TargetOrgID == uuid.Nil {
		return nil, apperrors.NewValidation("targetOrgId", "targetOrgId is required")
	}
	if *req.TargetOrgID == req.FromOrganizationID {
		return nil, apperrors.NewValidation("targetOrgId", "cannot transfer a patient to the originating organization")
	}

	target, err := s.repos.Organizations.GetByID(ctx, *req.TargetOrgID)
	if err != nil {
		return nil, referenceError(err, "targetOrgId")
	}
	if err := s.checkReferences(ctx, req.PatientID, req.AuthorID, req.FromOrganizationID); err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = "Transfer to " + target.Name
	}

	action := &model.Action{
		PatientID:          req.PatientID,
		AuthorID:           req.AuthorID,
		FromOrganizationID: req.FromOrganizationID,
		Type:               model.ActionTypeTransfer,
		Description:        description,
		Payload:            model.NewTransferPayload(target.ID),
	}
	if err := s.repos.Actions.Create(ctx, action); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	s.log.Info("transfer created",
		"action_id", action.ID,
		"patient_id", action.PatientID,
		"from_org", action.FromOrganizationID,
		"to_org", target.ID,
	)
	s.notifier.Notify(ctx, model.NewActionEvent(action))
	return action, nil
}

func (s *Service) TransitionAction(ctx context.Context, id uuid.UUID, req *model.TransitionActionRequest) (*model.Action, error) {
	if !req.Status.Valid() {
		return nil, apperrors.NewValidation("status", fmt.Sprintf("unknown action status %q", req.Status))
	}

	action, err := s.repos.Actions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict && !model.CanTransition(action.Status, req.Status) {
		return nil, apperrors.NewConflict(
			fmt.Sprintf("illegal transition from %s to %s", action.Status, req.Status), nil)
	}

	readVersion := action.Version
	if req.ExpectedVersion != nil && *req.ExpectedVersion != readVersion {
		return nil, apperrors.NewConflict("action was modified concurrently", nil)
	}

	now := s.now()
	if req.Status == model.ActionStatusCompleted {
		if req.CompletedBy == nil {
			return nil, apperrors.NewValidation("completedBy", "completedBy is required to complete an action")
		}
		if req.CompletedByOrganizationID == nil {
			return nil, apperrors.NewValidation("completedByOrganizationId",
				"completedByOrganizationId is required to complete an action")
		}
		action.CompletedAt = &now
		action.CompletedBy = req.CompletedBy
		action.CompletedByOrganizationID = req.CompletedByOrganizationID
	} else {
		action.CompletedAt = nil
		action.CompletedBy = nil
		action.CompletedByOrganizationID = nil
	}

	previous := action.Status
	action.Status = req.Status
	if req.Notes != nil {
		action.Notes = req.Notes
	}

	if err := s.repos.Actions.UpdateTransition(ctx, action, readVersion); err != nil {
		return nil, fmt.Errorf("failed to update action: %w", err)
	}

	s.log.Info("action transitioned",
		"action_id", action.ID,
		"from", previous,
		"to", action.Status,
		"version", action.Version,
	)
	s.notifier.Notify(ctx, model.UpdateActionEvent(action))
	return action, nil
}

func (s *Service) GetAction(ctx context.Context, id uuid.UUID) (*model.Action, error) {
	return s.repos.Actions.GetByID(ctx, id)
}

func (s *Service) checkReferences(ctx context.Context, patientID, authorID, orgID uuid.UUID) error {
	if _, err := s.repos.Patients.GetByID(ctx, patientID); err != nil {
		return referenceError(err, "patientId")
	}
	if _, err := s.repos.Users.GetByID(ctx, authorID); err != nil {
		return referenceError(err, "authorId")
	}
	if _, err := s.repos.Organizations.GetByID(ctx, orgID); err != nil {
		return referenceError(err, "fromOrganizationId")
	}
	return nil
}

// referenceError turns a missing referenced record into a validation
// failure on the request field that named it.
func referenceError(err error, field string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewValidation(field, field+" does not reference an existing record")
	}
	return err
}

var _ ActionServicer = (*Service)(nil)
