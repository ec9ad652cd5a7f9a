package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler processes one delivered envelope. A nil error acknowledges it.
type Handler func(ctx context.Context, env Envelope) error

// Source is a long-lived topic subscription. Consume blocks until ctx is
// cancelled (returning nil) or the subscription fails; ready is called once
// the subscription is established.
type Source interface {
	Consume(ctx context.Context, ready func()) error
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// MaxConsecutiveErrors read failures in a row end Consume with an error.
	MaxConsecutiveErrors int
	Logger               *slog.Logger
}

func (c *SubscriberConfig) setDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	if c.BlockDuration == 0 {
		c.BlockDuration = 2 * time.Second
	}
	if c.MaxConsecutiveErrors == 0 {
		c.MaxConsecutiveErrors = 5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Subscriber reads a Redis stream through a consumer group.
type Subscriber struct {
	client *redis.Client
	cfg    SubscriberConfig
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	config.setDefaults()
	return &Subscriber{client: client, cfg: config}
}

func (s *Subscriber) Consume(ctx context.Context, ready func()) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log := s.cfg.Logger.With(slog.String("stream", s.cfg.Stream), slog.String("group", s.cfg.Group), slog.String("consumer", s.cfg.Consumer))
	log.Info("subscriber started")
	ready()

	failures := 0
	for {
		if ctx.Err() != nil {
			log.Info("subscriber stopping")
			return nil
		}
		if err := s.readMessages(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			failures++
			log.Warn("error reading messages", slog.Any("error", err), slog.Int("consecutive_failures", failures))
			if failures >= s.cfg.MaxConsecutiveErrors {
				return err
			}
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		failures = 0
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.processMessage(ctx, message); err != nil {
				// Left pending for redelivery.
				s.cfg.Logger.Error("failed to process message", slog.String("id", message.ID), slog.Any("error", err))
				continue
			}
			if err := s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, message.ID).Err(); err != nil {
				s.cfg.Logger.Error("failed to ack message", slog.String("id", message.ID), slog.Any("error", err))
			}
		}
	}
	return nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}
	var env Envelope
	if err := json.Unmarshal([]byte(eventData), &env); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return s.cfg.Handler(ctx, env)
}

// LogHandler returns a handler that records each event and acknowledges it.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, env Envelope) error {
		logger.InfoContext(ctx, "event received",
			slog.String("event_id", env.EventID),
			slog.String("event_type", env.EventType),
			slog.String("entity_id", env.EntityID),
			slog.String("source", env.Source),
		)
		return nil
	}
}
