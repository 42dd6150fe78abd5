package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mediconnect/clinical-api/internal/config"
	"github.com/mediconnect/clinical-api/internal/email"
	"github.com/mediconnect/clinical-api/internal/repository/postgres"
	cleanup "github.com/mediconnect/clinical-api/internal/worker"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/messaging"
	"github.com/mediconnect/clinical-api/pkg/messaging/kafka"
	"github.com/mediconnect/clinical-api/pkg/messaging/redis"
	"github.com/mediconnect/clinical-api/pkg/metrics"
	"github.com/mediconnect/clinical-api/pkg/worker"
)

// WorkerConfig holds settings only the worker reads, from WORKER_* variables.
type WorkerConfig struct {
	HealthPort int `envconfig:"HEALTH_PORT" default:"8081"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`

	AlertFrom string   `envconfig:"ALERT_FROM" default:"alerts@mediconnect.local"`
	AlertTo   []string `envconfig:"ALERT_TO"`
}

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("worker failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	var wcfg WorkerConfig
	if err := envconfig.Process("worker", &wcfg); err != nil {
		return fmt.Errorf("failed to load worker config: %w", err)
	}

	lg := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.Format == "json",
	})
	log.Logger = lg.ZL

	if !cfg.Outbox.Enabled {
		lg.Warn("Outbox is disabled; the API records no events for this worker to relay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	broker, err := newBroker(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg, cfg.Server.MetricsPrefix, "worker")

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db, cfg.Outbox.Enabled))

	var alerter worker.Alerter
	if wcfg.SMTPHost != "" {
		alerter = email.NewSMTPService(email.Config{
			Host:     wcfg.SMTPHost,
			Port:     wcfg.SMTPPort,
			Username: wcfg.SMTPUsername,
			Password: wcfg.SMTPPassword,
			From:     wcfg.AlertFrom,
		})
	} else {
		lg.Warn("WORKER_SMTP_HOST not set, escalation e-mails are disabled")
	}

	processor, err := worker.NewOutboxProcessor(outboxRepo, broker, alerter, worker.OutboxProcessorConfig{
		Topic:           cfg.Broker.Topic,
		BatchSize:       cfg.Outbox.BatchSize,
		PollInterval:    cfg.Outbox.PollInterval,
		RetryAttempts:   cfg.Outbox.RetryAttempts,
		RetryDelay:      cfg.Outbox.RetryDelay,
		MaxFailures:     cfg.Outbox.MaxFailures,
		AlertRecipients: wcfg.AlertTo,
	}, lg, m)
	if err != nil {
		return err
	}
	purger := cleanup.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupEvery, lg, m)

	srv := healthServer(wcfg.HealthPort, db, reg)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error(err, "Health server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		purger.Start(ctx)
	}()

	lg.Info("Worker started", "broker", cfg.Broker.Driver, "topic", cfg.Broker.Topic, "health_port", wcfg.HealthPort)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error(err, "Health server forced to shutdown")
	}
	wg.Wait()

	lg.Info("Worker stopped")
	return nil
}

func newBroker(ctx context.Context, cfg *config.Config, lg *logger.Logger) (messaging.Broker, error) {
	switch cfg.Broker.Driver {
	case config.BrokerKafka:
		return kafka.NewKafkaBroker(kafka.Config{
			Brokers: cfg.Broker.Kafka.Brokers,
			GroupID: cfg.Broker.Kafka.GroupID,
		}, lg.ZL)
	default:
		rc := cfg.Broker.Redis
		return redis.NewRedisBroker(ctx, redis.Config{
			URL:          rc.URL,
			MaxRetries:   rc.MaxRetries,
			RetryBackoff: rc.RetryBackoff,
			PoolSize:     rc.PoolSize,
			MinIdleConns: rc.MinIdleConns,
		}, lg.ZL)
	}
}

func healthServer(port int, db *sqlx.DB, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
