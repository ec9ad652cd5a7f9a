// Package server runs a service's HTTP listener and background consumer for
// the lifetime of the process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eaglemart/platform/shared/events"
)

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func DefaultConfig(port string) Config {
	return Config{
		Addr:            ":" + port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server couples the HTTP server with the service's topic consumer. Consumer
// may be nil for services that own no topic.
type Server struct {
	cfg      Config
	http     *http.Server
	consumer *events.Consumer
	logger   *slog.Logger
}

func New(cfg Config, handler http.Handler, consumer *events.Consumer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		consumer: consumer,
		logger:   logger,
	}
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the consumer, waits for it to be ready, serves HTTP on ln and blocks until ctx is
// cancelled or either side fails. A consumer that gives up ends Serve with
// its error so the process exits instead of running without it.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.consumer != nil {
		if err := s.consumer.Start(gctx); err != nil {
			ln.Close()
			return err
		}
		// HTTP is only served once the subscription exists.
		select {
		case <-s.consumer.Ready():
		case <-s.consumer.Done():
			ln.Close()
			return s.consumer.Err()
		case <-ctx.Done():
			ln.Close()
			stopCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
			defer cancel()
			return s.consumer.Stop(stopCtx)
		}
		s.logger.Info("consumer ready")

		g.Go(func() error {
			select {
			case <-s.consumer.Done():
				return s.consumer.Err()
			case <-gctx.Done():
				return nil
			}
		})
	}

	g.Go(func() error {
		s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if s.consumer != nil {
			if err := s.consumer.Stop(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	s.logger.Info("server stopped")
	return err
}
