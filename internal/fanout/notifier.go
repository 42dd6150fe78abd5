package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediconnect/clinical-api/internal/model"
	"github.com/mediconnect/clinical-api/pkg/messaging"
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 2 * time.Second
)

// BrokerNotifier publishes events to a broker channel so every API replica
// can deliver them. Each replica runs a Relay feeding its own hub.
//
// Notify never waits on the broker: events are queued and published by a
// background goroutine until Close is called.
type BrokerNotifier struct {
	broker  messaging.Broker
	channel string
	local   *Hub
	logger  zerolog.Logger
	timeout time.Duration

	queue     chan model.Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewBrokerNotifier(broker messaging.Broker, channel string, local *Hub, logger zerolog.Logger) *BrokerNotifier {
	n := &BrokerNotifier{
		broker:  broker,
		channel: channel,
		local:   local,
		logger:  logger.With().Str("component", "broker-notifier").Logger(),
		timeout: defaultPublishTimeout,
		queue:   make(chan model.Event, defaultQueueSize),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues the event for publication. When the queue is full the event
// is delivered to this replica's clients only.
func (n *BrokerNotifier) Notify(_ context.Context, event model.Event) {
	select {
	case n.queue <- event:
	default:
		n.logger.Warn().Str("type", string(event.Type)).Msg("publish queue full, broadcasting locally")
		n.local.Broadcast(event)
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (n *BrokerNotifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
		<-n.done
	})
}

func (n *BrokerNotifier) run() {
	defer close(n.done)
	for event := range n.queue {
		n.publish(event)
	}
}

// publish is detached from any request context so a client disconnect does
// not cancel delivery to other replicas.
func (n *BrokerNotifier) publish(event model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.broker.Publish(ctx, n.channel, event); err != nil {
		n.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("publish failed, broadcasting locally")
		n.local.Broadcast(event)
	}
}

// Relay copies events from the broker channel into the local hub.
type Relay struct {
	broker  messaging.Broker
	channel string
	hub     *Hub
	logger  zerolog.Logger
}

func NewRelay(broker messaging.Broker, channel string, hub *Hub, logger zerolog.Logger) *Relay {
	return &Relay{
		broker:  broker,
		channel: channel,
		hub:     hub,
		logger:  logger.With().Str("component", "fanout-relay").Logger(),
	}
}

// Run blocks until ctx is cancelled or the subscription ends.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().Str("channel", r.channel).Msg("relay started")
	return messaging.Consume(ctx, r.broker, r.channel, r.handle, func(err error) {
		if r.hub.metrics != nil {
			r.hub.metrics.RelayErrors.Inc()
		}
		r.logger.Warn().Err(err).Msg("dropping relayed message")
	})
}

func (r *Relay) handle(_ context.Context, payload []byte) error {
	var head struct {
		Type model.EventType `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return err
	}
	r.hub.broadcastRaw(string(head.Type), payload)
	return nil
}

var (
	_ Notifier = (*Hub)(nil)
	_ Notifier = (*BrokerNotifier)(nil)
)
