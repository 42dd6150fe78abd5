package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/mediconnect/clinical-api/pkg/circuitbreaker"
	"github.com/mediconnect/clinical-api/pkg/messaging"
)

type Config struct {
	Brokers []string
	GroupID string
	// Buffer is the capacity of each subscription channel.
	Buffer       int
	BatchTimeout time.Duration
}

// KafkaBroker publishes each channel as a topic of the same name.
type KafkaBroker struct {
	writer  *kafka.Writer
	config  Config
	cb      *circuitbreaker.CircuitBreaker
	logger  zerolog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
	closed  bool
}

var ErrClosed = errors.New("kafka broker is closed")

func NewKafkaBroker(config Config, logger zerolog.Logger) (*KafkaBroker, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka broker list is empty")
	}
	if config.Buffer <= 0 {
		config.Buffer = 100
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           config.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaBroker{
		writer: writer,
		config: config,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "kafka-broker",
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     5 * time.Second,
		}, logger),
		logger: logger.With().Str("component", "kafka-broker").Logger(),
	}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := messaging.Encode(message)
	if err != nil {
		return err
	}

	return b.cb.Execute(func() error {
		return b.writer.WriteMessages(ctx, kafka.Message{
			Topic: channel,
			Value: payload,
			Time:  time.Now(),
		})
	})
}

func (b *KafkaBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.config.Brokers,
		Topic:    channel,
		GroupID:  b.config.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	msgChan := make(chan []byte, b.config.Buffer)

	go func() {
		defer close(msgChan)

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				b.logger.Warn().Err(err).Str("topic", channel).Msg("read failed")
				time.Sleep(100 * time.Millisecond)
				continue
			}

			select {
			case msgChan <- msg.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}

// Close closes every subscription reader and the writer. Later Subscribe
// calls return ErrClosed.
func (b *KafkaBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	readers := b.readers
	b.readers = nil
	b.mu.Unlock()

	var errs []error
	for _, r := range readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := b.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var _ messaging.Broker = (*KafkaBroker)(nil)
