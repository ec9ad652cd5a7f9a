package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/eaglemart/platform/shared/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type idleSource struct{}

func (idleSource) Consume(ctx context.Context, ready func()) error {
	ready()
	<-ctx.Done()
	return nil
}

type brokenSource struct{}

func (brokenSource) Consume(ctx context.Context, ready func()) error {
	return errors.New("broker unreachable")
}

func testConfig() Config {
	cfg := DefaultConfig("0")
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	return ln
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestServeStopsOnCancel(t *testing.T) {
	consumer := events.NewConsumer(idleSource{}, events.ConsumerConfig{Name: "test", Logger: quietLogger()})
	srv := New(testConfig(), okHandler(), consumer, quietLogger())
	ln := listen(t)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- srv.Serve(ctx, ln) }()

	select {
	case <-consumer.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never became ready")
	}

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Serve = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if consumer.State() != events.Stopped {
		t.Errorf("consumer state = %s, want stopped", consumer.State())
	}
}

func TestServeFailsWhenConsumerGivesUp(t *testing.T) {
	consumer := events.NewConsumer(brokenSource{}, events.ConsumerConfig{
		Name:           "test",
		MaxRestarts:    1,
		InitialBackoff: time.Millisecond,
		Logger:         quietLogger(),
	})
	srv := New(testConfig(), okHandler(), consumer, quietLogger())

	result := make(chan error, 1)
	go func() { result <- srv.Serve(context.Background(), listen(t)) }()

	select {
	case err := <-result:
		if err == nil {
			t.Fatal("expected Serve to fail when the consumer stops")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept running without its consumer")
	}
}

func TestServeWithoutConsumer(t *testing.T) {
	srv := New(testConfig(), okHandler(), nil, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- srv.Serve(ctx, listen(t)) }()
	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
