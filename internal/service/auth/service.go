// Package auth signs staff in and issues access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	"github.com/mediconnect/clinical-api/pkg/auth"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	orgs   repository.OrganizationRepository
	users  repository.UserRepository
	hasher security.PasswordHasher
	jwtSvc auth.JWTService
	log    *logger.Logger
}

func NewService(
	orgs repository.OrganizationRepository,
	users repository.UserRepository,
	hasher security.PasswordHasher,
	jwtSvc auth.JWTService,
	log *logger.Logger,
) *Service {
	return &Service{
		orgs:   orgs,
		users:  users,
		hasher: hasher,
		jwtSvc: jwtSvc,
		log:    log,
	}
}

// Login resolves the organization by code and the user by employee ID within
// it. Every failure reports the same unauthorized error.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.OrgCode))

	org, err := s.orgs.GetByCode(ctx, code)
	if err != nil {
		return nil, s.reject(err, code, req.EmployeeID)
	}

	user, err := s.users.GetByEmployeeID(ctx, org.ID, strings.TrimSpace(req.EmployeeID))
	if err != nil {
		return nil, s.reject(err, code, req.EmployeeID)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, security.ErrMismatch) {
			s.log.Error(err, "stored password hash unusable", "user_id", user.ID)
		}
		return nil, s.reject(apperrors.NewNotFound("user", err), code, req.EmployeeID)
	}

	token, expiresAt, err := s.jwtSvc.GenerateAccessToken(auth.Principal{
		UserID:         user.ID,
		OrganizationID: org.ID,
		EmployeeID:     user.EmployeeID,
		Role:           string(user.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info("user logged in", "user_id", user.ID, "organization", org.Code, "role", user.Role)
	return &model.LoginResponse{
		Token:        token,
		ExpiresAt:    expiresAt.UTC(),
		User:         user,
		Organization: org,
	}, nil
}

// reject hides which part of the credentials was wrong. Store failures other
// than not-found are returned as is.
func (s *Service) reject(err error, orgCode, employeeID string) error {
	if !apperrors.IsNotFound(err) {
		return err
	}
	s.log.Warn("login rejected", "org_code", orgCode, "employee_id", employeeID)
	appErr := apperrors.Unauthorized(ErrInvalidCredentials)
	appErr.Message = ErrInvalidCredentials.Error()
	return appErr
}
