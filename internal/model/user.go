package model

import (
	"github.com/google/uuid"
)

// Role is the operational role of a staff member.
type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacy   Role = "pharmacy"
	RoleDiagnostic Role = "diagnostic"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RoleNurse, RolePharmacy, RoleDiagnostic, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is a staff member of exactly one organization.
type User struct {
	Base
	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	EmployeeID     string    `json:"employeeId" db:"employee_id"`
	Name           string    `json:"name" db:"name"`
	Role           Role      `json:"role" db:"role"`
	PasswordHash   string    `json:"-" db:"password_hash"`
}

type CreateUserRequest struct {
	OrganizationID uuid.UUID `json:"organizationId" binding:"required"`
	EmployeeID     string    `json:"employeeId" binding:"required,max=32"`
	Name           string    `json:"name" binding:"required"`
	Role           Role      `json:"role" binding:"required,user_role"`
	Password       string    `json:"password" binding:"required,min=8,max=72"`
}
