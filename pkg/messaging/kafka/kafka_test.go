package kafka

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaBrokerRequiresBrokers(t *testing.T) {
	_, err := NewKafkaBroker(Config{}, zerolog.Nop())
	assert.Error(t, err)
}

// Readers connect lazily, so no Kafka is needed: the subscriptions stop as
// soon as their context is cancelled.
func TestSubscribeAndCloseConcurrently(t *testing.T) {
	broker, err := NewKafkaBroker(Config{Brokers: []string{"127.0.0.1:1"}, GroupID: "test"}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, err := broker.Subscribe(ctx, "mediconnect.events")
			if err != nil {
				assert.ErrorIs(t, err, ErrClosed)
				return
			}
			for range ch {
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = broker.Close()
	}()
	wg.Wait()

	_, err = broker.Subscribe(ctx, "mediconnect.events")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, broker.Close())
}
