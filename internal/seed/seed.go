// Package seed loads the demo data set used by local environments.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/security"
)

// MarkerCode is the organization whose presence means the seed already ran.
const MarkerCode = "CITY"

type Repositories struct {
	Organizations repository.OrganizationRepository
	Users         repository.UserRepository
	Patients      repository.PatientRepository
	Visits        repository.VisitRepository
	Actions       repository.ActionRepository
}

type Seeder struct {
	repos    Repositories
	hasher   security.PasswordHasher
	password string
	log      *logger.Logger
	now      func() time.Time
}

func New(repos Repositories, hasher security.PasswordHasher, password string, log *logger.Logger) *Seeder {
	return &Seeder{
		repos:    repos,
		hasher:   hasher,
		password: password,
		log:      log,
		now:      time.Now,
	}
}

type orgSeed struct {
	org   model.Organization
	staff []model.User
}

var organizations = []orgSeed{
	{
		org: model.Organization{Name: "City General Hospital", Type: model.OrganizationTypeHospital, Code: "CITY", Address: "123 Medical Avenue, Downtown"},
		staff: []model.User{
			{EmployeeID: "ADM001", Name: "Admin Raj Patel", Role: model.RoleAdmin},
			{EmployeeID: "DOC001", Name: "Dr. Sarah Chen", Role: model.RoleDoctor},
			{EmployeeID: "NUR001", Name: "Nurse Priya Sharma", Role: model.RoleNurse},
		},
	},
	{
		org:   model.Organization{Name: "GreenCross Pharmacy", Type: model.OrganizationTypePharmacy, Code: "GREEN", Address: "456 Health Street, Midtown"},
		staff: []model.User{{EmployeeID: "PH001", Name: "Pharmacist Amit Kumar", Role: model.RolePharmacy}},
	},
	{
		org:   model.Organization{Name: "DiagnoLab Diagnostics", Type: model.OrganizationTypeLab, Code: "LAB", Address: "789 Science Park, Uptown"},
		staff: []model.User{{EmployeeID: "LAB001", Name: "Lab Tech Meera Joshi", Role: model.RoleDiagnostic}},
	},
}

var patients = []model.Patient{
	{UniqueID: "PAT-10001", Name: "Jane Doe", DOB: model.NewDate(1990, time.May, 15), Gender: "female", Contact: "555-0101", BloodGroup: "O+"},
	{UniqueID: "PAT-10002", Name: "Rahul Verma", DOB: model.NewDate(1985, time.November, 22), Gender: "male", Contact: "555-0202", BloodGroup: "B+"},
	{UniqueID: "PAT-10003", Name: "Maria Santos", DOB: model.NewDate(2000, time.March, 8), Gender: "female", Contact: "555-0303", BloodGroup: "A-"},
}

// Run inserts the demo data unless the marker organization exists. It
// reports whether anything was written.
func (s *Seeder) Run(ctx context.Context) (bool, error) {
	if _, err := s.repos.Organizations.GetByCode(ctx, MarkerCode); err == nil {
		s.log.Info("seed data present, skipping", "marker", MarkerCode)
		return false, nil
	} else if !apperrors.IsNotFound(err) {
		return false, fmt.Errorf("failed to check seed marker: %w", err)
	}

	hash, err := s.hasher.Hash(s.password)
	if err != nil {
		return false, fmt.Errorf("failed to hash seed password: %w", err)
	}

	var orgs []*model.Organization
	var staff []*model.User
	for _, seed := range organizations {
		org, users, err := s.seedOrganization(ctx, seed, hash)
		if err != nil {
			return false, err
		}
		orgs = append(orgs, org)
		staff = append(staff, users...)
	}
	orgByCode := lo.KeyBy(orgs, func(o *model.Organization) string { return o.Code })
	staffByID := lo.KeyBy(staff, func(u *model.User) string { return u.EmployeeID })

	created := make([]*model.Patient, 0, len(patients))
	for _, p := range patients {
		if err := s.repos.Patients.Create(ctx, &p); err != nil {
			return false, fmt.Errorf("failed to seed patient %s: %w", p.UniqueID, err)
		}
		created = append(created, &p)
	}

	if err := s.seedClinicalWork(ctx, created, orgByCode, staffByID); err != nil {
		return false, err
	}

	s.log.Info("seed completed",
		"organizations", len(orgs),
		"staff", len(staff),
		"patients", len(created),
	)
	return true, nil
}

// seedOrganization creates the organization with its first staff member,
// then the rest.
func (s *Seeder) seedOrganization(ctx context.Context, seed orgSeed, hash string) (*model.Organization, []*model.User, error) {
	org := seed.org
	users := lo.Map(seed.staff, func(u model.User, _ int) *model.User {
		u.PasswordHash = hash
		return &u
	})

	if err := s.repos.Organizations.CreateWithAdmin(ctx, &org, users[0]); err != nil {
		return nil, nil, fmt.Errorf("failed to seed organization %s: %w", org.Code, err)
	}
	for _, u := range users[1:] {
		u.OrganizationID = org.ID
		if err := s.repos.Users.Create(ctx, u); err != nil {
			return nil, nil, fmt.Errorf("failed to seed user %s: %w", u.EmployeeID, err)
		}
	}
	return &org, users, nil
}

type actionSeed struct {
	patient     int
	visit       int
	kind        model.ActionType
	description string
	status      model.ActionStatus
	notes       string
	completer   string
}

var actions = []actionSeed{
	{0, 0, model.ActionTypePrescription, "Paracetamol 500mg - 1 tablet TDS for 5 days. Ibuprofen 400mg for pain relief.", model.ActionStatusPending, "", ""},
	{0, 0, model.ActionTypeLabTest, "Complete Blood Count (CBC) - Check for infection markers", model.ActionStatusCompleted,
		"Results: WBC 11,200/µL (slightly elevated), RBC 4.5M/µL (normal), Hb 13.2 g/dL (normal)", "LAB001"},
	{1, 1, model.ActionTypePrescription, "Aspirin 75mg daily. Atorvastatin 20mg at night. Schedule ECG.", model.ActionStatusInProgress, "", ""},
	{1, 1, model.ActionTypeLabTest, "Lipid Panel + Cardiac Enzymes (Troponin, CK-MB)", model.ActionStatusPending, "", ""},
	{0, 0, model.ActionTypeObservation, "Monitor temperature every 4 hours. Ensure adequate hydration.", model.ActionStatusCompleted,
		"Temperature stable at 37.0°C. Patient reports improvement.", "NUR001"},
}

func (s *Seeder) seedClinicalWork(
	ctx context.Context,
	patients []*model.Patient,
	orgByCode map[string]*model.Organization,
	staffByID map[string]*model.User,
) error {
	hospital := orgByCode[MarkerCode]
	doctor := staffByID["DOC001"]
	nurse := staffByID["NUR001"]
	now := s.now().UTC()

	visits := []*model.Visit{
		{
			PatientID:      patients[0].ID,
			OrganizationID: hospital.ID,
			Date:           now.Add(-24 * time.Hour),
			Vitals:         model.Vitals{Weight: "65", BP: "120/80", Temp: "36.8"},
			Symptoms:       "Headache, mild fever, fatigue",
			Priority:       model.PriorityNormal,
			AttendedBy:     &nurse.ID,
		},
		{
			PatientID:      patients[1].ID,
			OrganizationID: hospital.ID,
			Date:           now,
			Vitals:         model.Vitals{Weight: "78", BP: "140/90", Temp: "37.2", HR: "104"},
			Symptoms:       "Chest pain, shortness of breath",
			Priority:       model.PriorityCritical,
			AttendedBy:     &nurse.ID,
		},
	}
	for _, v := range visits {
		if err := s.repos.Visits.Create(ctx, v); err != nil {
			return fmt.Errorf("failed to seed visit: %w", err)
		}
	}

	for _, seed := range actions {
		visitID := visits[seed.visit].ID
		a := &model.Action{
			PatientID:          patients[seed.patient].ID,
			VisitID:            &visitID,
			AuthorID:           doctor.ID,
			FromOrganizationID: hospital.ID,
			Type:               seed.kind,
			Description:        seed.description,
		}
		if err := s.repos.Actions.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to seed %s action: %w", seed.kind, err)
		}
		if err := s.advance(ctx, a, seed, staffByID); err != nil {
			return err
		}
	}
	return nil
}

// advance walks an action through the legal transitions to its seeded status.
func (s *Seeder) advance(
	ctx context.Context,
	a *model.Action,
	seed actionSeed,
	staffByID map[string]*model.User,
) error {
	path := map[model.ActionStatus][]model.ActionStatus{
		model.ActionStatusInProgress: {model.ActionStatusInProgress},
		model.ActionStatusCompleted:  {model.ActionStatusInProgress, model.ActionStatusCompleted},
	}[seed.status]

	for _, status := range path {
		a.Status = status
		if status == model.ActionStatusCompleted {
			completer := staffByID[seed.completer]
			completedAt := s.now().UTC()
			a.CompletedAt = &completedAt
			a.CompletedBy = &completer.ID
			a.CompletedByOrganizationID = &completer.OrganizationID
			if seed.notes != "" {
				notes := seed.notes
				a.Notes = &notes
			}
		}
		if err := s.repos.Actions.UpdateTransition(ctx, a, a.Version); err != nil {
			return fmt.Errorf("failed to advance seeded action to %s: %w", status, err)
		}
	}
	return nil
}

// Credentials lists the demo logins printed after seeding.
func Credentials() []string {
	return []string{
		"Doctor:     CITY / DOC001",
		"Nurse:      CITY / NUR001",
		"Admin:      CITY / ADM001",
		"Pharmacy:   GREEN / PH001",
		"Lab:        LAB / LAB001",
	}
}
