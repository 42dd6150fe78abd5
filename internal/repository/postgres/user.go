package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, organization_id, employee_id, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.OrganizationID,
		user.EmployeeID,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
	)
	return mapError(err, "create user", "user")
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, organization_id, employee_id, name, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, mapError(err, "get user", "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmployeeID(ctx context.Context, orgID uuid.UUID, employeeID string) (*model.User, error) {
	query := `
		SELECT id, organization_id, employee_id, name, role, password_hash, created_at
		FROM users
		WHERE organization_id = $1 AND employee_id = $2
	`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, orgID, employeeID); err != nil {
		return nil, mapError(err, "get user by employee id", "user")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, orgID *uuid.UUID) ([]*model.User, error) {
	query := `
		SELECT id, organization_id, employee_id, name, role, password_hash, created_at
		FROM users
		WHERE ($1::uuid IS NULL OR organization_id = $1)
		ORDER BY role ASC, name ASC
	`

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, query, orgID); err != nil {
		return nil, mapError(err, "list users", "user")
	}
	return users, nil
}
