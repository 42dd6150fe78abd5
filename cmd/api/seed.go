package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediconnect/clinical-api/internal/repository/postgres"
	"github.com/mediconnect/clinical-api/internal/seed"
	"github.com/mediconnect/clinical-api/pkg/security"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo organisations, staff, patients and actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := runMigrations(cmd.Context(), a); err != nil {
				return err
			}

			seeder := seed.New(seed.Repositories{
				Organizations: postgres.NewOrganizationRepository(a.base),
				Users:         postgres.NewUserRepository(a.base),
				Patients:      postgres.NewPatientRepository(a.base),
				Visits:        postgres.NewVisitRepository(a.base),
				Actions:       postgres.NewActionRepository(a.base),
			}, security.NewBcryptHasher(a.cfg.Auth.BcryptCost), a.cfg.Seed.Password, a.log)

			ran, err := seeder.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}
			if !ran {
				a.log.Info("Demo data already present, nothing to do", "marker", seed.MarkerCode)
				return nil
			}
			for _, line := range seed.Credentials() {
				fmt.Println(line)
			}
			return nil
		},
	}
}
