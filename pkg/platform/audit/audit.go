// Package audit emits registration events to Kafka with fail-open semantics:
// admission must never depend on the audit pipe, so publish failures are
// logged and dropped.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Action names the audited act.
type Action string

const (
	ActionAccountAdmitted Action = "account_admitted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	AccountID string    `json:"account_id"`
	Nickname  string    `json:"nickname"`
	Handle    string    `json:"handle,omitempty"`
	// Strategy records which verification strategy accepted the handle.
	Strategy string `json:"strategy,omitempty"`
	Country  string `json:"country"`
}

// Publisher produces events to one Kafka topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher connects to the given brokers. Returns nil when no brokers
// are configured; a nil Publisher is safe to Emit on.
func NewPublisher(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}
	p := &Publisher{client: client, topic: topic}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Emit publishes asynchronously. Failures are logged, never returned.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit event marshal failed", "action", event.Action, "error", err)
		}
		return
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(event.AccountID), Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.ErrorContext(ctx, "audit publish failed", "action", event.Action, "error", err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
