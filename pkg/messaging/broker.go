package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	// Publish JSON-encodes message and sends it on channel. A json.RawMessage
	// or []byte message is sent as is.
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Handler processes a single message received from a broker.
type Handler func(ctx context.Context, payload []byte) error

// Consume subscribes to channel and feeds every message to handler until ctx is
// done or the subscription closes. Handler errors are passed to onError and do
// not stop consumption.
func Consume(ctx context.Context, broker Broker, channel string, handler Handler, onError func(error)) error {
	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
