package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository/mocks"
)

func item(t model.ActionType, status model.ActionStatus, payload model.ActionPayload, age time.Duration) *model.QueueItem {
	return &model.QueueItem{
		Action: model.Action{
			ID:        uuid.New(),
			Type:      t,
			Status:    status,
			Payload:   payload,
			CreatedAt: time.Now().Add(-age),
		},
		PatientName:      "Jane Doe",
		PatientUniqueID:  "PAT-10001",
		AuthorName:       "Dr. Sarah Chen",
		OrganizationName: "City General Hospital",
	}
}

func TestTypesForRoleCoversEveryTypeOnce(t *testing.T) {
	var all []model.ActionType
	for _, dept := range Departments() {
		all = append(all, TypesForRole(dept)...)
	}

	assert.ElementsMatch(t, model.ActionTypes, all)
	assert.Len(t, lo.Uniq(all), len(all))

	assert.Contains(t, TypesForRole("nurse"), model.ActionTypeTransfer)
	assert.NotContains(t, TypesForRole("pharmacy"), model.ActionTypeTransfer)
	assert.NotContains(t, TypesForRole("diagnostic"), model.ActionTypeTransfer)
}

func TestTypesForRoleReturnsCopy(t *testing.T) {
	types := TypesForRole("pharmacy")
	types[0] = model.ActionTypeTransfer
	assert.Equal(t, []model.ActionType{model.ActionTypePrescription}, TypesForRole("pharmacy"))
}

func TestGetQueueUnknownRoleIsEmpty(t *testing.T) {
	repo := new(mocks.ActionRepository)
	svc := NewService(repo)

	for _, role := range []string{"doctor", "admin", "janitor", ""} {
		items, err := svc.GetQueue(context.Background(), role)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
	repo.AssertNotCalled(t, "ListByTypes", mock.Anything, mock.Anything)
}

func TestPrescriptionRoutesToPharmacyOnly(t *testing.T) {
	repo := new(mocks.ActionRepository)
	svc := NewService(repo)
	rx := item(model.ActionTypePrescription, model.ActionStatusPending, model.ActionPayload{}, 0)

	repo.On("ListByTypes", mock.Anything, []model.ActionType{model.ActionTypePrescription}).
		Return([]*model.QueueItem{rx}, nil)
	repo.On("ListByTypes", mock.Anything, []model.ActionType{model.ActionTypeLabTest, model.ActionTypeRadiology}).
		Return([]*model.QueueItem{}, nil)

	pharmacy, err := svc.GetQueue(context.Background(), "pharmacy")
	require.NoError(t, err)
	require.Len(t, pharmacy, 1)
	assert.Equal(t, rx.ID, pharmacy[0].ID)
	assert.Equal(t, "Jane Doe", pharmacy[0].PatientName)

	diagnostic, err := svc.GetQueue(context.Background(), "diagnostic")
	require.NoError(t, err)
	assert.Empty(t, diagnostic)
}

func TestGetQueueFiltersForeignTypes(t *testing.T) {
	repo := new(mocks.ActionRepository)
	svc := NewService(repo)
	lab := item(model.ActionTypeLabTest, model.ActionStatusPending, model.ActionPayload{}, time.Minute)
	stray := item(model.ActionTypePrescription, model.ActionStatusPending, model.ActionPayload{}, 0)

	repo.On("ListByTypes", mock.Anything, mock.Anything).Return([]*model.QueueItem{stray, lab}, nil)

	items, err := svc.GetQueue(context.Background(), "diagnostic")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, lab.ID, items[0].ID)
}

func TestGetQueuePropagatesErrors(t *testing.T) {
	repo := new(mocks.ActionRepository)
	repo.On("ListByTypes", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := NewService(repo).GetQueue(context.Background(), "nurse")
	assert.Error(t, err)
}

func TestTransferScenario(t *testing.T) {
	repo := new(mocks.ActionRepository)
	svc := NewService(repo)
	target, other := uuid.New(), uuid.New()

	open := item(model.ActionTypeTransfer, model.ActionStatusPending, model.NewTransferPayload(target), 0)
	inProgress := item(model.ActionTypeTransfer, model.ActionStatusInProgress, model.NewTransferPayload(target), time.Minute)
	done := item(model.ActionTypeTransfer, model.ActionStatusCompleted, model.NewTransferPayload(target), 2*time.Minute)
	elsewhere := item(model.ActionTypeTransfer, model.ActionStatusPending, model.NewTransferPayload(other), 3*time.Minute)
	observation := item(model.ActionTypeObservation, model.ActionStatusPending, model.ActionPayload{}, 4*time.Minute)

	repo.On("ListByTypes", mock.Anything, TypesForRole("nurse")).
		Return([]*model.QueueItem{open, inProgress, done, elsewhere, observation}, nil)

	nurse, err := svc.GetQueue(context.Background(), "nurse")
	require.NoError(t, err)
	assert.Len(t, nurse, 5)

	incoming, err := svc.GetIncomingTransfers(context.Background(), target)
	require.NoError(t, err)
	ids := lo.Map(incoming, func(i *model.QueueItem, _ int) uuid.UUID { return i.ID })
	assert.Equal(t, []uuid.UUID{open.ID, inProgress.ID}, ids)

	none, err := svc.GetIncomingTransfers(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
