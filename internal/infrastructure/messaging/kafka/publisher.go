package kafka

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
	"github.com/your-org/cafe-storefront/internal/domain/order"
)

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("order event publisher is closed")

// messageWriter is the part of kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes order events to a kafka topic, keyed by order id so
// that every event of one order lands on the same partition.
type Publisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
	log          *logrus.Logger
	closed       atomic.Bool
}

// NewPublisher creates a synchronous kafka publisher
func NewPublisher(cfg config.KafkaConfig, log *logrus.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Errorf("kafka writer: "+msg, args...)
		}),
	}

	return newPublisher(writer, cfg.Topic, cfg.WriteTimeout, log), nil
}

func newPublisher(w messageWriter, topic string, writeTimeout time.Duration, log *logrus.Logger) *Publisher {
	return &Publisher{
		writer:       w,
		topic:        topic,
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Publish implements order.EventPublisher
func (p *Publisher) Publish(ctx context.Context, event order.Event) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode order event")
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s to %s", event.Type, p.topic)
	}

	p.log.WithFields(logrus.Fields{
		"topic":    p.topic,
		"event":    event.Type,
		"order_id": event.OrderID,
	}).Debug("Order event published")
	return nil
}

// Close flushes and closes the writer. It is safe to call more than once.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
