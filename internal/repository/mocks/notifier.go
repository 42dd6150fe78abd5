package mocks

import (
	"context"
	"sync"

	"github.com/mediconnect/clinical-api/internal/model"
)

// Notifier records every event it is given.
type Notifier struct {
	mu     sync.Mutex
	Events []model.Event
}

func (n *Notifier) Notify(_ context.Context, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, event)
}

func (n *Notifier) Types() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]model.EventType, len(n.Events))
	for i, e := range n.Events {
		types[i] = e.Type
	}
	return types
}
