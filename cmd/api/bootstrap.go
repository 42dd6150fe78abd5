package main

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mediconnect/clinical-api/internal/config"
	"github.com/mediconnect/clinical-api/internal/repository/postgres"
	"github.com/mediconnect/clinical-api/pkg/logger"
)

// app holds what every subcommand needs.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	db   *sqlx.DB
	base postgres.BaseRepository
}

func bootstrap(cmd *cobra.Command) (*app, error) {
	var paths []string
	if dir, _ := cmd.Flags().GetString("config"); dir != "" {
		paths = append(paths, dir)
	}

	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}

	lg := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.Format == "json",
	})
	log.Logger = lg.ZL

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:  cfg,
		log:  lg,
		db:   db,
		base: postgres.NewBaseRepository(db, cfg.Outbox.Enabled),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Error(err, "Failed to close database")
	}
}
