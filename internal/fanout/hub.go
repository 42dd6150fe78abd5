// Package fanout pushes clinical events to every connected WebSocket viewer.
package fanout

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediconnect/clinical-api/internal/model"
)

// Notifier delivers an event to connected viewers. Implementations never
// block the caller on slow clients and never fail the caller's operation.
type Notifier interface {
	Notify(ctx context.Context, event model.Event)
}

// Client is one connected viewer.
type Client struct {
	ID   string
	Send chan []byte
}

func NewClient(buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{ID: uuid.NewString(), Send: make(chan []byte, buffer)}
}

// Hub tracks connected clients. All operations are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	metrics *Metrics
	logger  zerolog.Logger
}

func NewHub(metrics *Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: metrics,
		logger:  logger.With().Str("component", "fanout-hub").Logger(),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(float64(len(h.clients)))
	}
}

// Unregister removes the client and closes its Send channel. Calling it
// twice is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(float64(len(h.clients)))
	}
}

// Broadcast marshals the event once and hands it to every client. Clients
// whose buffer is full miss this event.
func (h *Hub) Broadcast(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(event.Type)).Msg("failed to marshal event")
		return
	}
	h.broadcastRaw(string(event.Type), data)
}

// Notify implements Notifier.
func (h *Hub) Notify(_ context.Context, event model.Event) {
	h.Broadcast(event)
}

func (h *Hub) broadcastRaw(eventType string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			dropped++
		}
	}

	if h.metrics != nil {
		h.metrics.EventsBroadcast.WithLabelValues(eventType).Inc()
		if dropped > 0 {
			h.metrics.EventsDropped.WithLabelValues(eventType).Add(float64(dropped))
		}
	}
	if dropped > 0 {
		h.logger.Warn().Str("type", eventType).Int("dropped", dropped).Msg("slow clients missed event")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
	}
	if h.metrics != nil {
		h.metrics.ConnectedClients.Set(0)
	}
}
