package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityEmergency Priority = "emergency"
	PriorityCritical  Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityEmergency, PriorityCritical:
		return true
	}
	return false
}

// Urgent reports whether the priority surfaces the visit as an active emergency.
func (p Priority) Urgent() bool {
	return p == PriorityEmergency || p == PriorityCritical
}

// Vitals are the measurements taken at check-in.
type Vitals struct {
	Weight string `json:"weight,omitempty"`
	BP     string `json:"bp,omitempty"`
	Temp   string `json:"temp,omitempty"`
	HR     string `json:"hr,omitempty"`
	SpO2   string `json:"spo2,omitempty"`
}

func (v Vitals) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *Vitals) Scan(src interface{}) error {
	switch data := src.(type) {
	case nil:
		*v = Vitals{}
		return nil
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("cannot scan %T into Vitals", src)
	}
}

// Visit is one encounter of a patient at an organization.
type Visit struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	PatientID      uuid.UUID  `json:"patientId" db:"patient_id"`
	OrganizationID uuid.UUID  `json:"organizationId" db:"organization_id"`
	Date           time.Time  `json:"date" db:"date"`
	Vitals         Vitals     `json:"vitals" db:"vitals"`
	Symptoms       string     `json:"symptoms" db:"symptoms"`
	Diagnosis      string     `json:"diagnosis" db:"diagnosis"`
	Priority       Priority   `json:"priority" db:"priority"`
	AttendedBy     *uuid.UUID `json:"attendedBy" db:"attended_by"`
}

type CreateVisitRequest struct {
	PatientID      uuid.UUID  `json:"patientId" binding:"required"`
	OrganizationID uuid.UUID  `json:"organizationId"`
	Vitals         Vitals     `json:"vitals"`
	Symptoms       string     `json:"symptoms"`
	Diagnosis      string     `json:"diagnosis"`
	Priority       Priority   `json:"priority" binding:"omitempty,priority"`
	AttendedBy     *uuid.UUID `json:"attendedBy"`
}

type UpdateVisitRequest struct {
	Diagnosis *string   `json:"diagnosis"`
	Symptoms  *string   `json:"symptoms"`
	Priority  *Priority `json:"priority" binding:"omitempty,priority"`
}

// EmergencyVisit is a visit flagged emergency or critical with its patient.
type EmergencyVisit struct {
	Visit             Visit   `json:"visit"`
	Patient           Patient `json:"patient"`
	AttendingUserName *string `json:"attendingUserName"`
}

// Escalation is recorded when a visit's priority moves from normal to urgent.
type Escalation struct {
	Visit       *Visit    `json:"visit"`
	PatientName string    `json:"patientName"`
	UniqueID    string    `json:"uniqueId"`
	From        Priority  `json:"from"`
	To          Priority  `json:"to"`
	EscalatedAt time.Time `json:"escalatedAt"`
}
