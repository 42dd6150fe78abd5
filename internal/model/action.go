package model

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionTypePrescription ActionType = "prescription"
	ActionTypeLabTest      ActionType = "lab_test"
	ActionTypeRadiology    ActionType = "radiology"
	ActionTypeProcedure    ActionType = "procedure"
	ActionTypeObservation  ActionType = "observation"
	ActionTypeTransfer     ActionType = "transfer"
)

// ActionTypes lists every action type.
var ActionTypes = []ActionType{
	ActionTypePrescription,
	ActionTypeLabTest,
	ActionTypeRadiology,
	ActionTypeProcedure,
	ActionTypeObservation,
	ActionTypeTransfer,
}

func (t ActionType) Valid() bool {
	for _, at := range ActionTypes {
		if t == at {
			return true
		}
	}
	return false
}

type ActionStatus string

const (
	ActionStatusPending    ActionStatus = "pending"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusCompleted  ActionStatus = "completed"
	ActionStatusCancelled  ActionStatus = "cancelled"
)

func (s ActionStatus) Valid() bool {
	switch s {
	case ActionStatusPending, ActionStatusInProgress, ActionStatusCompleted, ActionStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s ActionStatus) Terminal() bool {
	return s == ActionStatusCompleted || s == ActionStatusCancelled
}

var actionTransitions = map[ActionStatus][]ActionStatus{
	ActionStatusPending:    {ActionStatusInProgress, ActionStatusCancelled},
	ActionStatusInProgress: {ActionStatusCompleted, ActionStatusCancelled},
}

// CanTransition reports whether an action in status from may move to to.
// Staying in a non-terminal status is allowed so notes can be updated.
func CanTransition(from, to ActionStatus) bool {
	if from == to {
		return !from.Terminal()
	}
	for _, next := range actionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Action is a routed unit of clinical work.
type Action struct {
	ID                        uuid.UUID     `json:"id" db:"id"`
	PatientID                 uuid.UUID     `json:"patientId" db:"patient_id"`
	VisitID                   *uuid.UUID    `json:"visitId" db:"visit_id"`
	AuthorID                  uuid.UUID     `json:"authorId" db:"author_id"`
	FromOrganizationID        uuid.UUID     `json:"fromOrganizationId" db:"from_organization_id"`
	Type                      ActionType    `json:"type" db:"type"`
	Status                    ActionStatus  `json:"status" db:"status"`
	Description               string        `json:"description" db:"description"`
	Payload                   ActionPayload `json:"payload" db:"payload"`
	Notes                     *string       `json:"notes" db:"notes"`
	CreatedAt                 time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt                 time.Time     `json:"updatedAt" db:"updated_at"`
	CompletedAt               *time.Time    `json:"completedAt" db:"completed_at"`
	CompletedBy               *uuid.UUID    `json:"completedBy" db:"completed_by"`
	CompletedByOrganizationID *uuid.UUID    `json:"completedByOrganizationId" db:"completed_by_organization_id"`
	Version                   int           `json:"version" db:"version"`
}

// IsIncomingTransferFor reports whether a is an open transfer targeting orgID.
func (a *Action) IsIncomingTransferFor(orgID uuid.UUID) bool {
	if a.Type != ActionTypeTransfer || a.Status == ActionStatusCompleted {
		return false
	}
	target, ok := a.Payload.TargetOrganization()
	return ok && target == orgID
}

type CreateActionRequest struct {
	PatientID          uuid.UUID     `json:"patientId" binding:"required"`
	VisitID            *uuid.UUID    `json:"visitId"`
	AuthorID           uuid.UUID     `json:"authorId"`
	FromOrganizationID uuid.UUID     `json:"fromOrganizationId"`
	Type               ActionType    `json:"type" binding:"required,action_type"`
	Description        string        `json:"description" binding:"required"`
	Payload            ActionPayload `json:"payload"`
}

type TransitionActionRequest struct {
	Status                    ActionStatus `json:"status" binding:"required,action_status"`
	Notes                     *string      `json:"notes"`
	CompletedBy               *uuid.UUID   `json:"completedBy"`
	CompletedByOrganizationID *uuid.UUID   `json:"completedByOrganizationId"`
	ExpectedVersion           *int         `json:"expectedVersion" binding:"omitempty,min=1"`
}

type CreateTransferRequest struct {
	PatientID          uuid.UUID  `json:"patientId" binding:"required"`
	TargetOrgID        *uuid.UUID `json:"targetOrgId"`
	AuthorID           uuid.UUID  `json:"authorId"`
	FromOrganizationID uuid.UUID  `json:"fromOrgId"`
	Description        string     `json:"description"`
}

// QueueItem is an action flattened with display fields for department views.
type QueueItem struct {
	Action
	PatientName      string `json:"patientName" db:"patient_name"`
	PatientUniqueID  string `json:"uniqueId" db:"patient_unique_id"`
	AuthorName       string `json:"authorName" db:"author_name"`
	OrganizationName string `json:"orgName" db:"org_name"`
}
