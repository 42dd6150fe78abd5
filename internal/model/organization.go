package model

// OrganizationType categorizes a tenant.
type OrganizationType string

const (
	OrganizationTypeHospital OrganizationType = "hospital"
	OrganizationTypePharmacy OrganizationType = "pharmacy"
	OrganizationTypeLab      OrganizationType = "lab"
	OrganizationTypePlatform OrganizationType = "platform"
)

func (t OrganizationType) Valid() bool {
	switch t {
	case OrganizationTypeHospital, OrganizationTypePharmacy, OrganizationTypeLab, OrganizationTypePlatform:
		return true
	}
	return false
}

type Organization struct {
	Base
	Name    string           `json:"name" db:"name"`
	Type    OrganizationType `json:"type" db:"type"`
	Code    string           `json:"code" db:"code"`
	Address string           `json:"address" db:"address"`
}

type CreateOrganizationRequest struct {
	Name    string           `json:"name" binding:"required"`
	Type    OrganizationType `json:"type" binding:"required,org_type"`
	Code    string           `json:"code" binding:"required,alphanum,max=16"`
	Address string           `json:"address" binding:"required"`
}

// OnboardingResult is returned when a new organization is created together
// with its default administrator.
type OnboardingResult struct {
	Organization *Organization `json:"organization"`
	Admin        *User         `json:"admin"`
}
