package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
)

type organizationRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

func (r *organizationRepository) CreateWithAdmin(ctx context.Context, org *model.Organization, admin *model.User) error {
	orgQuery := `
		INSERT INTO organizations (id, name, type, code, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	userQuery := `
		INSERT INTO users (id, organization_id, employee_id, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	org.ID = uuid.New()
	org.CreatedAt = now
	admin.ID = uuid.New()
	admin.OrganizationID = org.ID
	admin.CreatedAt = now

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, orgQuery,
			org.ID,
			org.Name,
			org.Type,
			org.Code,
			org.Address,
			org.CreatedAt,
		); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, userQuery,
			admin.ID,
			admin.OrganizationID,
			admin.EmployeeID,
			admin.Name,
			admin.Role,
			admin.PasswordHash,
			admin.CreatedAt,
		); err != nil {
			return err
		}

		return r.enqueue(ctx, tx, model.OutboxOrganizationCreated, org)
	})
	return mapError(err, "create organization", "organization")
}

func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `
		SELECT id, name, type, code, address, created_at
		FROM organizations
		WHERE id = $1
	`
	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, mapError(err, "get organization", "organization")
	}
	return &org, nil
}

func (r *organizationRepository) GetByCode(ctx context.Context, code string) (*model.Organization, error) {
	query := `
		SELECT id, name, type, code, address, created_at
		FROM organizations
		WHERE code = $1
	`
	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, code); err != nil {
		return nil, mapError(err, "get organization by code", "organization")
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	query := `
		SELECT id, name, type, code, address, created_at
		FROM organizations
		ORDER BY name ASC
	`
	orgs := []*model.Organization{}
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, mapError(err, "list organizations", "organization")
	}
	return orgs, nil
}
