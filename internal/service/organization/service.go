// Package organization onboards tenants and manages their staff.
package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/security"
)

type OrganizationServicer interface {
	Onboard(ctx context.Context, req *model.CreateOrganizationRequest) (*model.OnboardingResult, error)
	ListOrganizations(ctx context.Context) ([]*model.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	CreateStaff(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	ListStaff(ctx context.Context, orgID *uuid.UUID) ([]*model.User, error)
}

type Service struct {
	orgs                 repository.OrganizationRepository
	users                repository.UserRepository
	hasher               security.PasswordHasher
	defaultAdminPassword string
	log                  *logger.Logger
}

func NewService(
	orgs repository.OrganizationRepository,
	users repository.UserRepository,
	hasher security.PasswordHasher,
	defaultAdminPassword string,
	log *logger.Logger,
) *Service {
	return &Service{
		orgs:                 orgs,
		users:                users,
		hasher:               hasher,
		defaultAdminPassword: defaultAdminPassword,
		log:                  log,
	}
}

// AdminEmployeeID is the employee ID given to an organization's default admin.
func AdminEmployeeID(code string) string {
	return code + "ADMIN"
}

// Onboard creates the organization together with its default admin.
func (s *Service) Onboard(ctx context.Context, req *model.CreateOrganizationRequest) (*model.OnboardingResult, error) {
	if !req.Type.Valid() {
		return nil, apperrors.NewValidation("type", fmt.Sprintf("unknown organization type %q", req.Type))
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	org := &model.Organization{
		Name:    strings.TrimSpace(req.Name),
		Type:    req.Type,
		Code:    code,
		Address: req.Address,
	}

	hash, err := s.hasher.Hash(s.defaultAdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash default admin password: %w", err)
	}
	admin := &model.User{
		EmployeeID:   AdminEmployeeID(code),
		Name:         org.Name + " Admin",
		Role:         model.RoleAdmin,
		PasswordHash: hash,
	}

	if err := s.orgs.CreateWithAdmin(ctx, org, admin); err != nil {
		return nil, fmt.Errorf("failed to onboard organization: %w", err)
	}

	s.log.Info("organization onboarded", "organization_id", org.ID, "code", org.Code, "admin", admin.EmployeeID)
	return &model.OnboardingResult{Organization: org, Admin: admin}, nil
}

func (s *Service) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *Service) CreateStaff(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.NewValidation("role", fmt.Sprintf("unknown role %q", req.Role))
	}
	if _, err := s.orgs.GetByID(ctx, req.OrganizationID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidation("organizationId", "organizationId does not reference an existing record")
		}
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordShort) {
			return nil, apperrors.NewValidation("password",
				fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen))
		}
		if errors.Is(err, security.ErrPasswordLong) {
			return nil, apperrors.NewValidation("password",
				fmt.Sprintf("password must be at most %d bytes", security.MaxPasswordLen))
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		OrganizationID: req.OrganizationID,
		EmployeeID:     strings.TrimSpace(req.EmployeeID),
		Name:           strings.TrimSpace(req.Name),
		Role:           req.Role,
		PasswordHash:   hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	s.log.Info("staff created", "user_id", user.ID, "employee_id", user.EmployeeID, "role", user.Role)
	return user, nil
}

// ListStaff returns staff ordered by role, optionally limited to one organization.
func (s *Service) ListStaff(ctx context.Context, orgID *uuid.UUID) ([]*model.User, error) {
	users, err := s.users.List(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return users, nil
}

var _ OrganizationServicer = (*Service)(nil)
