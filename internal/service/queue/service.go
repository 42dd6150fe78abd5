// Package queue routes clinical actions to department work queues.
package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

var departmentTypes = map[string][]model.ActionType{
	string(model.RolePharmacy):   {model.ActionTypePrescription},
	string(model.RoleDiagnostic): {model.ActionTypeLabTest, model.ActionTypeRadiology},
	string(model.RoleNurse):      {model.ActionTypeObservation, model.ActionTypeProcedure, model.ActionTypeTransfer},
}

// Departments lists the roles that own a queue.
func Departments() []string {
	return []string{string(model.RolePharmacy), string(model.RoleDiagnostic), string(model.RoleNurse)}
}

// TypesForRole returns the action types routed to a department. Unknown
// roles have none.
func TypesForRole(role string) []model.ActionType {
	types, ok := departmentTypes[role]
	if !ok {
		return nil
	}
	return append([]model.ActionType(nil), types...)
}

type QueueServicer interface {
	GetQueue(ctx context.Context, role string) ([]*model.QueueItem, error)
	GetIncomingTransfers(ctx context.Context, orgID uuid.UUID) ([]*model.QueueItem, error)
}

type Service struct {
	actions repository.ActionRepository
}

func NewService(actions repository.ActionRepository) *Service {
	return &Service{actions: actions}
}

// GetQueue returns the department's actions, newest first.
func (s *Service) GetQueue(ctx context.Context, role string) ([]*model.QueueItem, error) {
	types := TypesForRole(role)
	if len(types) == 0 {
		return []*model.QueueItem{}, nil
	}

	items, err := s.actions.ListByTypes(ctx, types)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s queue: %w", role, err)
	}

	// The store filters by type already; keep the guarantee local too.
	return lo.Filter(items, func(item *model.QueueItem, _ int) bool {
		return lo.Contains(types, item.Type)
	}), nil
}

// GetIncomingTransfers returns open transfers that target orgID.
func (s *Service) GetIncomingTransfers(ctx context.Context, orgID uuid.UUID) ([]*model.QueueItem, error) {
	items, err := s.GetQueue(ctx, string(model.RoleNurse))
	if err != nil {
		return nil, err
	}

	return lo.Filter(items, func(item *model.QueueItem, _ int) bool {
		return item.IsIncomingTransferFor(orgID)
	}), nil
}

var _ QueueServicer = (*Service)(nil)
