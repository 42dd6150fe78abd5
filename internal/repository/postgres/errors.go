package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// constraintFields maps constraint names to the request field they guard.
var constraintFields = map[string]string{
	"organizations_code_key":                     "code",
	"users_organization_id_employee_id_key":      "employeeId",
	"users_organization_id_fkey":                 "organizationId",
	"patients_unique_id_key":                     "uniqueId",
	"clinical_visits_patient_id_fkey":            "patientId",
	"clinical_visits_organization_id_fkey":       "organizationId",
	"clinical_visits_attended_by_fkey":           "attendedBy",
	"clinical_actions_patient_id_fkey":           "patientId",
	"clinical_actions_visit_id_fkey":             "visitId",
	"clinical_actions_author_id_fkey":            "authorId",
	"clinical_actions_from_organization_id_fkey": "fromOrganizationId",
}

// mapError translates driver errors into application errors. op describes
// the failed operation, e.g. "create patient".
func mapError(err error, op, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		field := constraintFields[pqErr.Constraint]
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			appErr := apperrors.NewConflict(fmt.Sprintf("%s already exists", describe(field, resource)), err)
			appErr.Field = field
			return appErr
		case pqForeignKeyViolation:
			if field == "" {
				field = resource
			}
			return apperrors.NewValidation(field, fmt.Sprintf("%s references a missing record", field))
		case pqCheckViolation:
			return apperrors.NewValidation(field, fmt.Sprintf("invalid value for %s", describe(field, resource)))
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func describe(field, resource string) string {
	if field == "" {
		return resource
	}
	return strings.TrimSpace(resource + " " + field)
}
