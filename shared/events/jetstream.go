package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/eaglemart/platform/shared/errs"
)

// JetStream publishes to and consumes from NATS JetStream streams. Each topic
// is a subject captured by a stream of the same (upper-cased) name.
type JetStream struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	source  string
	timeout time.Duration
	streams sync.Map // topic -> struct{}
}

func ConnectJetStream(url, source string, timeout time.Duration, opts ...nats.Option) (*JetStream, error) {
	defaults := []nats.Option{
		nats.Name(source),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}
	return &JetStream{conn: nc, js: js, source: source, timeout: timeout}, nil
}

func streamName(topic string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, topic)
}

func (j *JetStream) ensureStream(topic string) error {
	if _, ok := j.streams.Load(topic); ok {
		return nil
	}
	name := streamName(topic)
	_, err := j.js.StreamInfo(name)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = j.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{topic},
			Storage:  nats.FileStorage,
		})
		if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("ensuring stream %s: %w", name, err)
	}
	j.streams.Store(topic, struct{}{})
	return nil
}

func (j *JetStream) Publish(ctx context.Context, topic string, event MutationEvent) (ack Ack, err error) {
	ctx, span := startPublishSpan(ctx, "nats", topic, event)
	defer func() { endPublishSpan(span, err) }()

	if err := j.ensureStream(topic); err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", err)
	}
	env, err := NewEnvelope(j.source, event, time.Now())
	if err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", fmt.Errorf("failed to marshal event: %w", err))
	}

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	pubAck, err := j.js.Publish(topic, data, nats.Context(ctx), nats.MsgId(env.EventID))
	if err != nil {
		return Ack{}, errs.Wrap(errs.ErrPublish, "", fmt.Errorf("failed to publish event to %s: %w", topic, err))
	}
	return Ack{Topic: topic, MessageID: fmt.Sprintf("%s:%d", pubAck.Stream, pubAck.Sequence)}, nil
}

func (j *JetStream) Source(cfg SubscriberConfig) Source {
	cfg.setDefaults()
	return &jetStreamSubscriber{js: j, cfg: cfg}
}

func (j *JetStream) Close() error {
	j.conn.Close()
	return nil
}

type jetStreamSubscriber struct {
	js  *JetStream
	cfg SubscriberConfig
}

// Consume binds to a durable pull consumer named after the group so that
// several replicas share the work and unsubscribing keeps the consumer.
func (s *jetStreamSubscriber) Consume(ctx context.Context, ready func()) error {
	if err := s.js.ensureStream(s.cfg.Stream); err != nil {
		return err
	}
	stream := streamName(s.cfg.Stream)
	_, err := s.js.js.AddConsumer(stream, &nats.ConsumerConfig{
		Durable:       s.cfg.Group,
		AckPolicy:     nats.AckExplicitPolicy,
		FilterSubject: s.cfg.Stream,
	})
	if err != nil && !errors.Is(err, nats.ErrConsumerNameAlreadyInUse) {
		return fmt.Errorf("failed to create consumer %s: %w", s.cfg.Group, err)
	}
	sub, err := s.js.js.PullSubscribe(s.cfg.Stream, s.cfg.Group, nats.Bind(stream, s.cfg.Group))
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Stream, err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	log := s.cfg.Logger.With(slog.String("stream", s.cfg.Stream), slog.String("group", s.cfg.Group))
	log.Info("subscriber started")
	ready()

	failures := 0
	for ctx.Err() == nil {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.BlockDuration)
		msgs, err := sub.Fetch(int(s.cfg.BatchSize), nats.Context(fetchCtx))
		cancel()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
				continue
			}
			failures++
			log.Warn("error fetching messages", slog.Any("error", err), slog.Int("consecutive_failures", failures))
			if failures >= s.cfg.MaxConsecutiveErrors {
				return fmt.Errorf("failed to fetch from %s: %w", s.cfg.Stream, err)
			}
			continue
		}
		failures = 0
		for _, msg := range msgs {
			s.process(ctx, msg)
		}
	}
	log.Info("subscriber stopping")
	return nil
}

func (s *jetStreamSubscriber) process(ctx context.Context, msg *nats.Msg) {
	var env Envelope
	err := json.Unmarshal(msg.Data, &env)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal event: %w", err)
	} else {
		err = s.cfg.Handler(ctx, env)
	}
	if err != nil {
		s.cfg.Logger.Error("failed to process message", slog.String("subject", msg.Subject), slog.Any("error", err))
		_ = msg.Nak()
		return
	}
	if err := msg.Ack(); err != nil {
		s.cfg.Logger.Error("failed to ack message", slog.String("subject", msg.Subject), slog.Any("error", err))
	}
}
