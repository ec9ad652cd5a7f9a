package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eaglemart/platform/shared/errs"
)

// Ack is the broker's receipt for a published message.
type Ack struct {
	Topic     string
	MessageID string
}

// Publisher hands a MutationEvent to the broker and blocks until the broker
// acknowledges it or the attempt fails. Failures match errs.ErrPublish.
type Publisher interface {
	Publish(ctx context.Context, topic string, event MutationEvent) (Ack, error)
}

var tracer = otel.Tracer("github.com/eaglemart/platform/shared/events")

// NewEnvelope wraps event for the wire.
func NewEnvelope(source string, event MutationEvent, now time.Time) (Envelope, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", event.Type(), err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		SchemaVersion: SchemaVersion,
		EventType:     event.Type(),
		EntityKind:    event.EntityKind,
		Operation:     event.Operation,
		EntityID:      event.EntityID,
		Source:        source,
		OccurredAt:    now.UTC(),
		Payload:       payload,
	}, nil
}

func startPublishSpan(ctx context.Context, system, topic string, event MutationEvent) (context.Context, trace.Span) {
	return tracer.Start(ctx, "events.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", system),
			attribute.String("messaging.destination.name", topic),
			attribute.String("event.type", event.Type()),
			attribute.String("event.entity_id", event.EntityID),
		))
}

func endPublishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RedisPublisher appends events to Redis streams. XADD returns the entry id
// only once Redis has stored the entry, which is the acknowledgment.
type RedisPublisher struct {
	client  *redis.Client
	source  string
	timeout time.Duration
}

func NewRedisPublisher(client *redis.Client, source string, timeout time.Duration) *RedisPublisher {
	return &RedisPublisher{client: client, source: source, timeout: timeout}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event MutationEvent) (ack Ack, err error) {
	ctx, span := startPublishSpan(ctx, "redis", stream, event)
	defer func() { endPublishSpan(span, err) }()

	env, err := NewEnvelope(p.source, event, time.Now())
	if err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", err)
	}
	eventJSON, err := json.Marshal(env)
	if err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", fmt.Errorf("failed to marshal event: %w", err))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"event": eventJSON},
	}).Result()
	if err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", fmt.Errorf("failed to publish event to %s: %w", stream, err))
	}
	return Ack{Topic: stream, MessageID: id}, nil
}
