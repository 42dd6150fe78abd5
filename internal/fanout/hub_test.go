package fanout

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediconnect/clinical-api/internal/model"
)

func newTestHub() *Hub {
	return NewHub(NewMetrics(prometheus.NewRegistry(), "test"), zerolog.Nop())
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := newTestHub()
	client := NewClient(4)

	hub.Register(client)
	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(hub.metrics.ConnectedClients))

	hub.Unregister(client)
	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub := newTestHub()
	a, b := NewClient(4), NewClient(4)
	hub.Register(a)
	hub.Register(b)

	action := &model.Action{ID: uuid.New(), Type: model.ActionTypePrescription, Status: model.ActionStatusPending}
	hub.Notify(context.Background(), model.NewActionEvent(action))

	for _, c := range []*Client{a, b} {
		msg := <-c.Send
		var got map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.JSONEq(t, `"NEW_ACTION"`, string(got["type"]))
		assert.Contains(t, got, "action")
		assert.NotContains(t, got, "patient")
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	hub := newTestHub()
	slow := NewClient(1)
	fast := NewClient(8)
	hub.Register(slow)
	hub.Register(fast)

	visit := &model.Visit{ID: uuid.New(), Priority: model.PriorityCritical}
	for i := 0; i < 3; i++ {
		hub.Broadcast(model.UpdateVisitEvent(visit))
	}

	assert.Len(t, slow.Send, 1)
	assert.Len(t, fast.Send, 3)
	assert.Equal(t, float64(2), testutil.ToFloat64(hub.metrics.EventsDropped.WithLabelValues("UPDATE_VISIT")))
	assert.Equal(t, float64(3), testutil.ToFloat64(hub.metrics.EventsBroadcast.WithLabelValues("UPDATE_VISIT")))
}

func TestHubWithoutClients(t *testing.T) {
	hub := newTestHub()
	assert.NotPanics(t, func() {
		hub.Broadcast(model.NewPatientEvent(&model.Patient{Name: "Jane Doe"}))
	})
}

func TestHubClose(t *testing.T) {
	hub := newTestHub()
	client := NewClient(1)
	hub.Register(client)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-client.Send
	assert.False(t, open)
}
