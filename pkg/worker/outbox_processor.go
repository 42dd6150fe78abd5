package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/internal/repository"
	"github.com/mediconnect/clinical-api/pkg/logger"
	"github.com/mediconnect/clinical-api/pkg/messaging"
	"github.com/mediconnect/clinical-api/pkg/metrics"
)

const maxRetryBackoff = 5 * time.Minute

type OutboxProcessorConfig struct {
	Topic         string
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxFailures is the number of failed batches after which an event is
	// marked FAILED and no longer retried.
	MaxFailures     int
	AlertRecipients []string
}

func (c OutboxProcessorConfig) validate() error {
	switch {
	case c.Topic == "":
		return errors.New("topic is required")
	case c.BatchSize <= 0:
		return errors.New("batch size must be greater than 0")
	case c.PollInterval <= 0:
		return errors.New("poll interval must be greater than 0")
	case c.RetryAttempts <= 0:
		return errors.New("retry attempts must be greater than 0")
	case c.RetryDelay <= 0:
		return errors.New("retry delay must be greater than 0")
	case c.MaxFailures <= 0:
		return errors.New("max failures must be greater than 0")
	}
	return nil
}

// Alerter sends the e-mail for an escalated visit.
type Alerter interface {
	SendEscalationAlert(ctx context.Context, to []string, esc *model.Escalation) error
}

// OutboxProcessor relays outbox rows to the broker. Rows are claimed with
// row locks, so several processors may run against one database.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	alerter Alerter
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	alerter Alerter,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid outbox processor config: %w", err)
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		alerter: alerter,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "topic", p.config.Topic, "batch_size", p.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch claims up to BatchSize due events, publishes them and records
// the outcome of each. It returns the number published.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	batch, err := p.repo.ClaimBatch(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_batch", "error").Inc()
		return 0, fmt.Errorf("failed to claim outbox batch: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_batch", "success").Inc()

	committed := false
	defer func() {
		if !committed {
			if err := batch.Rollback(); err != nil {
				p.logger.Error(err, "Failed to roll back outbox batch")
			}
		}
	}()

	events := batch.Events()
	p.metrics.OutboxBatchSize.Set(float64(len(events)))

	published := 0
	for _, event := range events {
		ok, err := p.processEvent(ctx, batch, event)
		if err != nil {
			// Bookkeeping failed; leave the whole batch for the next run.
			p.metrics.DatabaseOperations.WithLabelValues("mark_event", "error").Inc()
			return published, fmt.Errorf("failed to record outcome of event %s: %w", event.ID, err)
		}
		if ok {
			published++
		}
	}

	if err := batch.Commit(); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("commit_batch", "error").Inc()
		return published, fmt.Errorf("failed to commit outbox batch: %w", err)
	}
	committed = true

	if len(events) > 0 {
		p.logger.Debug("Outbox batch processed", "claimed", len(events), "published", published)
	}
	return published, nil
}

// processEvent publishes one event and marks it. The bool reports whether it
// was published; the error is only set when marking failed.
func (p *OutboxProcessor) processEvent(ctx context.Context, batch repository.OutboxBatch, event *model.OutboxEvent) (bool, error) {
	msg := model.OutboxMessage{
		ID:        event.ID,
		Type:      event.EventType,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}

	pubErr := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		start := time.Now()
		err := p.broker.Publish(ctx, p.config.Topic, msg)
		p.metrics.BrokerLatency.WithLabelValues("publish").Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.BrokerOperations.WithLabelValues("publish", "error").Inc()
			return err
		}
		p.metrics.BrokerOperations.WithLabelValues("publish", "success").Inc()
		return nil
	})

	if pubErr != nil {
		return false, p.recordFailure(ctx, batch, event, pubErr)
	}

	if err := batch.MarkProcessed(ctx, event.ID); err != nil {
		return false, err
	}
	p.metrics.OutboxEventsProcessed.Inc()
	p.metrics.OutboxEventLag.WithLabelValues(event.EventType).Observe(p.now().Sub(event.CreatedAt).Seconds())

	if event.EventType == model.OutboxVisitEscalated {
		p.alert(ctx, event)
	}
	return true, nil
}

func (p *OutboxProcessor) recordFailure(ctx context.Context, batch repository.OutboxBatch, event *model.OutboxEvent, pubErr error) error {
	failures := event.RetryCount + 1
	msg := pubErr.Error()

	if failures >= p.config.MaxFailures {
		p.metrics.OutboxEventsFailed.Inc()
		p.logger.Error(pubErr, "Outbox event failed permanently",
			"event_id", event.ID.String(),
			"event_type", event.EventType,
			"failures", failures)
		return batch.MarkFailed(ctx, event.ID, msg)
	}

	p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	retryAt := p.now().Add(backoff(p.config.PollInterval, failures))
	p.logger.Warn("Outbox event will be retried",
		"event_id", event.ID.String(),
		"event_type", event.EventType,
		"failures", failures,
		"retry_at", retryAt)
	return batch.MarkRetry(ctx, event.ID, msg, retryAt)
}

// alert e-mails the configured recipients. Failures are logged only; the
// event itself has been published.
func (p *OutboxProcessor) alert(ctx context.Context, event *model.OutboxEvent) {
	if p.alerter == nil || len(p.config.AlertRecipients) == 0 {
		return
	}

	var esc model.Escalation
	if err := json.Unmarshal(event.Payload, &esc); err != nil {
		p.metrics.AlertsSent.WithLabelValues("invalid").Inc()
		p.logger.Error(err, "Malformed escalation payload", "event_id", event.ID.String())
		return
	}

	if err := p.alerter.SendEscalationAlert(ctx, p.config.AlertRecipients, &esc); err != nil {
		p.metrics.AlertsSent.WithLabelValues("error").Inc()
		p.logger.Error(err, "Failed to send escalation alert", "event_id", event.ID.String(), "unique_id", esc.UniqueID)
		return
	}
	p.metrics.AlertsSent.WithLabelValues("sent").Inc()
}

// backoff doubles base per failure, capped at maxRetryBackoff.
func backoff(base time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures && d < maxRetryBackoff; i++ {
		d *= 2
	}
	if d > maxRetryBackoff {
		d = maxRetryBackoff
	}
	return d
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
