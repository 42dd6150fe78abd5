package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a global identity shared by every organization.
type Patient struct {
	Base
	UniqueID   string `json:"uniqueId" db:"unique_id"`
	Name       string `json:"name" db:"name"`
	DOB        Date   `json:"dob" db:"dob"`
	Gender     string `json:"gender" db:"gender"`
	Contact    string `json:"contact" db:"contact"`
	BloodGroup string `json:"bloodGroup" db:"blood_group"`
}

type CreatePatientRequest struct {
	Name       string `json:"name" binding:"required"`
	DOB        Date   `json:"dob" binding:"required"`
	Gender     string `json:"gender" binding:"required,oneof=male female other"`
	Contact    string `json:"contact" binding:"required"`
	BloodGroup string `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

type UpdatePatientRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1"`
	DOB        *Date   `json:"dob"`
	Gender     *string `json:"gender" binding:"omitempty,oneof=male female other"`
	Contact    *string `json:"contact"`
	BloodGroup *string `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

// VisitDetail is a visit enriched with display names.
type VisitDetail struct {
	Visit
	OrganizationName string  `json:"orgName" db:"org_name"`
	StaffName        *string `json:"staffName" db:"staff_name"`
}

// ActionDetail is an action enriched with display names.
type ActionDetail struct {
	Action
	AuthorName       string `json:"authorName" db:"author_name"`
	OrganizationName string `json:"orgName" db:"org_name"`
}

// PatientDetails is the full record view of one patient.
type PatientDetails struct {
	Patient *Patient       `json:"patient"`
	Visits  []VisitDetail  `json:"visits"`
	Actions []ActionDetail `json:"actions"`
}

// PatientDeletion reports what a cascade delete removed.
type PatientDeletion struct {
	PatientID      uuid.UUID `json:"patientId"`
	VisitsDeleted  int64     `json:"visitsDeleted"`
	ActionsDeleted int64     `json:"actionsDeleted"`
	DeletedAt      time.Time `json:"deletedAt"`
}
