package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is a Consumer lifecycle state.
type State int32

const (
	NotStarted State = iota
	Running
	Cancelling
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Cancelling:
		return "cancelling"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var ErrConsumerStarted = errors.New("consumer already started")

type ConsumerConfig struct {
	Name string
	// MaxRestarts bounds consecutive restarts after Consume fails.
	MaxRestarts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// ResetAfter is how long a run must last to reset the restart budget.
	ResetAfter time.Duration
	Logger     *slog.Logger
}

// Consumer supervises a Source for the lifetime of the process, restarting
// it with exponential backoff when it fails.
type Consumer struct {
	source Source
	cfg    ConsumerConfig

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	err    error

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
}

func NewConsumer(source Source, cfg ConsumerConfig) *Consumer {
	if cfg.MaxRestarts == 0 {
		cfg.MaxRestarts = 5
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.ResetAfter == 0 {
		cfg.ResetAfter = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Consumer{
		source: source,
		cfg:    cfg,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the supervised subscription. It may be called once.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != NotStarted {
		return ErrConsumerStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = Running
	go c.run(runCtx)
	return nil
}

// Ready is closed once the subscription is first established.
func (c *Consumer) Ready() <-chan struct{} { return c.ready }

// Done is closed when the consumer has reached Stopped.
func (c *Consumer) Done() <-chan struct{} { return c.done }

func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err reports why the consumer stopped on its own; nil after a requested stop.
func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stop cancels the subscription and waits for it to release the broker, or
// for ctx to expire. Stopping a consumer that never started marks it Stopped.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case NotStarted:
		c.state = Stopped
		close(c.done)
		c.mu.Unlock()
		return nil
	case Running:
		c.state = Cancelling
		c.cancel()
	}
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("consumer %s did not stop: %w", c.cfg.Name, ctx.Err())
	}
}

func (c *Consumer) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *Consumer) run(ctx context.Context) {
	log := c.cfg.Logger.With(slog.String("consumer", c.cfg.Name))
	var finalErr error
	restarts := 0
	backoff := c.cfg.InitialBackoff

	for {
		started := time.Now()
		err := c.source.Consume(ctx, c.markReady)
		if ctx.Err() != nil {
			break
		}
		if err == nil {
			err = errors.New("subscription ended unexpectedly")
		}
		if time.Since(started) >= c.cfg.ResetAfter {
			restarts = 0
			backoff = c.cfg.InitialBackoff
		}
		if restarts >= c.cfg.MaxRestarts {
			finalErr = fmt.Errorf("consumer %s gave up after %d restarts: %w", c.cfg.Name, restarts, err)
			log.Error("consumer stopped", slog.Any("error", finalErr))
			break
		}
		restarts++
		log.Warn("consumer failed, restarting", slog.Any("error", err), slog.Int("restart", restarts), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		if ctx.Err() != nil {
			break
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}

	c.mu.Lock()
	c.err = finalErr
	c.state = Stopped
	c.cancel()
	c.mu.Unlock()
	close(c.done)
	log.Info("consumer stopped")
}
