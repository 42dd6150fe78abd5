package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mediconnect/clinical-api/internal/config"
	"github.com/mediconnect/clinical-api/internal/fanout"
	"github.com/mediconnect/clinical-api/internal/handler"
	actionHandler "github.com/mediconnect/clinical-api/internal/handler/action"
	authHandler "github.com/mediconnect/clinical-api/internal/handler/auth"
	"github.com/mediconnect/clinical-api/internal/handler/health"
	organizationHandler "github.com/mediconnect/clinical-api/internal/handler/organization"
	patientHandler "github.com/mediconnect/clinical-api/internal/handler/patient"
	queueHandler "github.com/mediconnect/clinical-api/internal/handler/queue"
	statsHandler "github.com/mediconnect/clinical-api/internal/handler/stats"
	visitHandler "github.com/mediconnect/clinical-api/internal/handler/visit"
	"github.com/mediconnect/clinical-api/internal/middleware"
	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository/postgres"
	"github.com/mediconnect/clinical-api/internal/router"
	actionService "github.com/mediconnect/clinical-api/internal/service/action"
	authService "github.com/mediconnect/clinical-api/internal/service/auth"
	organizationService "github.com/mediconnect/clinical-api/internal/service/organization"
	patientService "github.com/mediconnect/clinical-api/internal/service/patient"
	queueService "github.com/mediconnect/clinical-api/internal/service/queue"
	statsService "github.com/mediconnect/clinical-api/internal/service/stats"
	visitService "github.com/mediconnect/clinical-api/internal/service/visit"
	"github.com/mediconnect/clinical-api/pkg/auth"
	"github.com/mediconnect/clinical-api/pkg/messaging/redis"
	"github.com/mediconnect/clinical-api/pkg/security"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
				if err := runMigrations(cmd.Context(), a); err != nil {
					return err
				}
			}
			return runServer(cmd.Context(), a)
		},
	}
	cmd.Flags().Bool("migrate", true, "apply pending migrations before serving")
	return cmd
}

func runServer(parent context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Repositories
	orgRepo := postgres.NewOrganizationRepository(a.base)
	userRepo := postgres.NewUserRepository(a.base)
	patientRepo := postgres.NewPatientRepository(a.base)
	visitRepo := postgres.NewVisitRepository(a.base)
	actionRepo := postgres.NewActionRepository(a.base)
	statsRepo := postgres.NewStatsRepository(a.base)

	// Live fan-out
	hub := fanout.NewHub(fanout.NewMetrics(reg, cfg.Server.MetricsPrefix), a.log.ZL)
	defer hub.Close()

	notifier, closeFanout, err := newNotifier(ctx, cfg, hub, a)
	if err != nil {
		return err
	}
	defer closeFanout()

	// Services
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry())

	actionSvc := actionService.NewService(actionService.Repositories{
		Actions:       actionRepo,
		Patients:      patientRepo,
		Visits:        visitRepo,
		Users:         userRepo,
		Organizations: orgRepo,
	}, notifier, cfg.Actions.StrictTransitions, a.log)
	queueSvc := queueService.NewService(actionRepo)
	visitSvc := visitService.NewService(visitRepo, patientRepo, orgRepo, userRepo, notifier, a.log)
	patientSvc := patientService.NewService(patientRepo, visitRepo, actionRepo, notifier, a.log)
	orgSvc := organizationService.NewService(orgRepo, userRepo, hasher, cfg.Auth.DefaultAdminPassword, a.log)
	authSvc := authService.NewService(orgRepo, userRepo, hasher, jwtSvc, a.log)
	statsSvc := statsService.NewService(statsRepo, cfg.Cache.StatsTTL, cfg.Cache.CleanupInterval)

	// HTTP
	if err := middleware.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, cfg.Auth.Required)
	adminOnly := authMiddleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin)

	r := router.NewRouter(router.Config{
		RequestTimeout: cfg.Server.RequestTimeout(),
		RateLimit: middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		},
		CORS:          middleware.CORSConfig{AllowOrigins: cfg.CORS.AllowOrigins},
		MetricsPrefix: cfg.Server.MetricsPrefix,
		Registerer:    reg,
	}, authMiddleware, router.Handlers{
		Health: health.NewHandler(a.db, reg),
		Auth:   authHandler.NewHandler(authSvc),
		Protected: []handler.Registrar{
			actionHandler.NewHandler(actionSvc),
			queueHandler.NewHandler(queueSvc),
			visitHandler.NewHandler(visitSvc),
			patientHandler.NewHandler(patientSvc),
			organizationHandler.NewHandler(orgSvc, adminOnly),
			statsHandler.NewHandler(statsSvc),
		},
		WebSocket: fanout.NewHandler(hub, cfg.Fanout.ClientBuffer, a.log.ZL),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting server", "port", cfg.Server.Port, "fanout", cfg.Fanout.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("Server exited properly")
	return nil
}

// newNotifier picks the fan-out path. In redis mode events go through the
// broker channel and a relay feeds them back into this replica's hub.
func newNotifier(ctx context.Context, cfg *config.Config, hub *fanout.Hub, a *app) (fanout.Notifier, func(), error) {
	if cfg.Fanout.Mode != config.FanoutModeRedis {
		return hub, func() {}, nil
	}

	rc := cfg.Broker.Redis
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          rc.URL,
		MaxRetries:   rc.MaxRetries,
		RetryBackoff: rc.RetryBackoff,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		Buffer:       cfg.Fanout.ClientBuffer,
	}, a.log.ZL)
	if err != nil {
		return nil, nil, err
	}

	relay := fanout.NewRelay(broker, cfg.Fanout.Channel, hub, a.log.ZL)
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error(err, "Fan-out relay stopped")
		}
	}()

	notifier := fanout.NewBrokerNotifier(broker, cfg.Fanout.Channel, hub, a.log.ZL)
	closeFn := func() {
		notifier.Close()
		if err := broker.Close(); err != nil {
			a.log.Error(err, "Failed to close fan-out broker")
		}
	}
	return notifier, closeFn, nil
}
