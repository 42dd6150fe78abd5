package action

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository/mocks"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/logger"
)

type testDeps struct {
	actions  *mocks.ActionRepository
	patients *mocks.PatientRepository
	visits   *mocks.VisitRepository
	users    *mocks.UserRepository
	orgs     *mocks.OrganizationRepository
	notifier *mocks.Notifier
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setupTestService(strict bool) (*Service, *testDeps) {
	d := &testDeps{
		actions:  new(mocks.ActionRepository),
		patients: new(mocks.PatientRepository),
		visits:   new(mocks.VisitRepository),
		users:    new(mocks.UserRepository),
		orgs:     new(mocks.OrganizationRepository),
		notifier: new(mocks.Notifier),
	}
	svc := NewService(Repositories{
		Actions:       d.actions,
		Patients:      d.patients,
		Visits:        d.visits,
		Users:         d.users,
		Organizations: d.orgs,
	}, d.notifier, strict, logger.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, d
}

func (d *testDeps) expectReferences(patientID, authorID, orgID uuid.UUID) {
	d.patients.On("GetByID", mock.Anything, patientID).Return(&model.Patient{Base: model.Base{ID: patientID}}, nil)
	d.users.On("GetByID", mock.Anything, authorID).Return(&model.User{Base: model.Base{ID: authorID}}, nil)
	d.orgs.On("GetByID", mock.Anything, orgID).Return(&model.Organization{Base: model.Base{ID: orgID}, Name: "City General Hospital"}, nil)
}

func TestCreateActionIsPending(t *testing.T) {
	svc, d := setupTestService(true)
	patientID, authorID, orgID := uuid.New(), uuid.New(), uuid.New()
	d.expectReferences(patientID, authorID, orgID)
	d.actions.On("Create", mock.Anything, mock.AnythingOfType("*model.Action")).
		Run(func(args mock.Arguments) {
			a := args.Get(1).(*model.Action)
			a.ID = uuid.New()
			a.Status = model.ActionStatusPending
			a.Version = 1
		}).Return(nil)

	action, err := svc.CreateAction(context.Background(), &model.CreateActionRequest{
		PatientID:          patientID,
		AuthorID:           authorID,
		FromOrganizationID: orgID,
		Type:               model.ActionTypePrescription,
		Description:        "Amoxicillin 500mg",
	})

	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPending, action.Status)
	assert.Nil(t, action.CompletedAt)
	assert.Nil(t, action.CompletedBy)
	assert.Nil(t, action.CompletedByOrganizationID)
	assert.True(t, action.Payload.IsNone())
	assert.Equal(t, []model.EventType{model.EventNewAction}, d.notifier.Types())
	d.actions.AssertExpectations(t)
}

func TestCreateActionValidation(t *testing.T) {
	patientID, authorID, orgID := uuid.New(), uuid.New(), uuid.New()
	otherPatient := uuid.New()
	visitID := uuid.New()

	tests := []struct {
		name  string
		req   model.CreateActionRequest
		setup func(d *testDeps)
		field string
	}{
		{
			name:  "unknown type",
			req:   model.CreateActionRequest{PatientID: patientID, Type: "surgery", Description: "x"},
			field: "type",
		},
		{
			name:  "transfer rejected",
			req:   model.CreateActionRequest{PatientID: patientID, Type: model.ActionTypeTransfer, Description: "x"},
			field: "type",
		},
		{
			name: "payload on non-transfer",
			req: model.CreateActionRequest{
				PatientID: patientID, Type: model.ActionTypeLabTest, Description: "CBC",
				Payload: model.NewTransferPayload(uuid.New()),
			},
			field: "payload",
		},
		{
			name: "missing patient",
			req: model.CreateActionRequest{
				PatientID: patientID, AuthorID: authorID, FromOrganizationID: orgID,
				Type: model.ActionTypeLabTest, Description: "CBC",
			},
			setup: func(d *testDeps) {
				d.patients.On("GetByID", mock.Anything, patientID).Return(nil, apperrors.NewNotFound("patient", nil))
			},
			field: "patientId",
		},
		{
			name: "visit of another patient",
			req: model.CreateActionRequest{
				PatientID: patientID, AuthorID: authorID, FromOrganizationID: orgID, VisitID: &visitID,
				Type: model.ActionTypeRadiology, Description: "Chest X-ray",
			},
			setup: func(d *testDeps) {
				d.expectReferences(patientID, authorID, orgID)
				d.visits.On("GetByID", mock.Anything, visitID).Return(&model.Visit{ID: visitID, PatientID: otherPatient}, nil)
			},
			field: "visitId",
		},
		{
			name: "missing visit",
			req: model.CreateActionRequest{
				PatientID: patientID, AuthorID: authorID, FromOrganizationID: orgID, VisitID: &visitID,
				Type: model.ActionTypeRadiology, Description: "Chest X-ray",
			},
			setup: func(d *testDeps) {
				d.expectReferences(patientID, authorID, orgID)
				d.visits.On("GetByID", mock.Anything, visitID).Return(nil, apperrors.NewNotFound("visit", nil))
			},
			field: "visitId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := setupTestService(true)
			if tt.setup != nil {
				tt.setup(d)
			}

			_, err := svc.CreateAction(context.Background(), &tt.req)

			appErr, ok := apperrors.As(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
			d.actions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, d.notifier.Events)
		})
	}
}

func pendingAction() *model.Action {
	return &model.Action{
		ID:      uuid.New(),
		Type:    model.ActionTypePrescription,
		Status:  model.ActionStatusPending,
		Version: 1,
	}
}

func TestTransitionDispenseScenario(t *testing.T) {
	svc, d := setupTestService(true)
	stored := pendingAction()
	pharmacist, pharmacy := uuid.New(), uuid.New()

	d.actions.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	d.actions.On("UpdateTransition", mock.Anything, stored, mock.AnythingOfType("int")).
		Run(func(args mock.Arguments) {
			a := args.Get(1).(*model.Action)
			a.Version = args.Int(2) + 1
		}).Return(nil)

	action, err := svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status: model.ActionStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusInProgress, action.Status)
	assert.Nil(t, action.CompletedAt)
	assert.Equal(t, 2, action.Version)

	notes := "Dispensed"
	action, err = svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status:                    model.ActionStatusCompleted,
		Notes:                     &notes,
		CompletedBy:               &pharmacist,
		CompletedByOrganizationID: &pharmacy,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusCompleted, action.Status)
	require.NotNil(t, action.CompletedAt)
	assert.Equal(t, fixedNow, *action.CompletedAt)
	assert.Equal(t, pharmacist, *action.CompletedBy)
	assert.Equal(t, pharmacy, *action.CompletedByOrganizationID)
	assert.Equal(t, "Dispensed", *action.Notes)
	assert.Equal(t, 3, action.Version)

	assert.Equal(t, []model.EventType{model.EventUpdateAction, model.EventUpdateAction}, d.notifier.Types())
}

func TestTransitionCompletionRequiresCompleter(t *testing.T) {
	svc, d := setupTestService(true)
	stored := pendingAction()
	stored.Status = model.ActionStatusInProgress
	d.actions.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	_, err := svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status: model.ActionStatusCompleted,
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "completedBy", appErr.Field)
	d.actions.AssertNotCalled(t, "UpdateTransition", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionClearsCompletionOnOtherStatus(t *testing.T) {
	svc, d := setupTestService(false)
	completedAt := fixedNow.Add(-time.Hour)
	by, org := uuid.New(), uuid.New()
	stored := pendingAction()
	stored.Status = model.ActionStatusCompleted
	stored.CompletedAt = &completedAt
	stored.CompletedBy = &by
	stored.CompletedByOrganizationID = &org

	d.actions.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	d.actions.On("UpdateTransition", mock.Anything, stored, 1).Return(nil)

	action, err := svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status: model.ActionStatusPending,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPending, action.Status)
	assert.Nil(t, action.CompletedAt)
	assert.Nil(t, action.CompletedBy)
	assert.Nil(t, action.CompletedByOrganizationID)
}

func TestTransitionStrictRejectsIllegalMoves(t *testing.T) {
	tests := []struct {
		from model.ActionStatus
		to   model.ActionStatus
	}{
		{model.ActionStatusPending, model.ActionStatusCompleted},
		{model.ActionStatusCompleted, model.ActionStatusPending},
		{model.ActionStatusCancelled, model.ActionStatusInProgress},
		{model.ActionStatusCompleted, model.ActionStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			svc, d := setupTestService(true)
			stored := pendingAction()
			stored.Status = tt.from
			d.actions.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

			by, org := uuid.New(), uuid.New()
			_, err := svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
				Status:                    tt.to,
				CompletedBy:               &by,
				CompletedByOrganizationID: &org,
			})

			assert.True(t, apperrors.IsConflict(err))
			d.actions.AssertNotCalled(t, "UpdateTransition", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTransitionNotesOnlyUpdate(t *testing.T) {
	svc, d := setupTestService(true)
	stored := pendingAction()
	d.actions.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	d.actions.On("UpdateTransition", mock.Anything, stored, 1).Return(nil)

	notes := "Patient prefers liquid form"
	action, err := svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status: model.ActionStatusPending,
		Notes:  &notes,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusPending, action.Status)
	assert.Equal(t, notes, *action.Notes)
}

func TestTransitionVersionConflict(t *testing.T) {
	svc, d := setupTestService(true)
	stored := pendingAction()
	stored.Version = 3
	d.actions.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)

	expected := 2
	_, err := svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status:          model.ActionStatusInProgress,
		ExpectedVersion: &expected,
	})
	assert.True(t, apperrors.IsConflict(err))

	// A concurrent writer wins between read and write.
	d.actions.On("UpdateTransition", mock.Anything, stored, 3).
		Return(apperrors.NewConflict("action was modified by another request", nil))
	_, err = svc.TransitionAction(context.Background(), stored.ID, &model.TransitionActionRequest{
		Status: model.ActionStatusInProgress,
	})
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, d.notifier.Events)
}

func TestTransitionNotFound(t *testing.T) {
	svc, d := setupTestService(true)
	id := uuid.New()
	d.actions.On("GetByID", mock.Anything, id).Return(nil, apperrors.NewNotFound("action", nil))

	_, err := svc.TransitionAction(context.Background(), id, &model.TransitionActionRequest{
		Status: model.ActionStatusInProgress,
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateTransfer(t *testing.T) {
	svc, d := setupTestService(true)
	patientID, authorID, fromOrg, targetOrg := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	d.expectReferences(patientID, authorID, fromOrg)
	d.orgs.On("GetByID", mock.Anything, targetOrg).
		Return(&model.Organization{Base: model.Base{ID: targetOrg}, Name: "GreenCross Pharmacy"}, nil)
	d.actions.On("Create", mock.Anything, mock.AnythingOfType("*model.Action")).Return(nil)

	action, err := svc.CreateTransfer(context.Background(), &model.CreateTransferRequest{
		PatientID:          patientID,
		TargetOrgID:        &targetOrg,
		AuthorID:           authorID,
		FromOrganizationID: fromOrg,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ActionTypeTransfer, action.Type)
	assert.Nil(t, action.VisitID)
	assert.Equal(t, fromOrg, action.FromOrganizationID)
	assert.Equal(t, "Transfer to GreenCross Pharmacy", action.Description)
	to, ok := action.Payload.TargetOrganization()
	require.True(t, ok)
	assert.Equal(t, targetOrg, to)
	assert.Equal(t, []model.EventType{model.EventNewAction}, d.notifier.Types())
}

func TestCreateTransferValidation(t *testing.T) {
	svc, d := setupTestService(true)
	orgID := uuid.New()
	missing := uuid.New()
	d.orgs.On("GetByID", mock.Anything, missing).Return(nil, apperrors.NewNotFound("organization", nil))

	tests := []struct {
		name   string
		target *uuid.UUID
	}{
		{"missing target", nil},
		{"same organization", &orgID},
		{"unknown target", &missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransfer(context.Background(), &model.CreateTransferRequest{
				PatientID:          uuid.New(),
				TargetOrgID:        tt.target,
				FromOrganizationID: orgID,
			})
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "targetOrgId", appErr.Field)
		})
	}
	d.actions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
