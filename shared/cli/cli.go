// Package cli builds the command line every service binary exposes: serve
// (the default) and migrate.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/logging"
	"github.com/eaglemart/platform/shared/server"
	"github.com/eaglemart/platform/shared/store"
)

// Deps are the process-wide handles passed to a service's Build function.
// DB and Broker are nil unless the service declared it needs them.
type Deps struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Broker events.Broker
}

// App is what a service contributes to the process.
type App struct {
	Handler http.Handler
	// EventHandler handles deliveries on the service topic; nil logs them.
	EventHandler events.Handler
	// Close releases service-owned resources after the server stopped.
	Close func() error
}

type Service struct {
	Name  string
	Topic string
	Needs config.Needs
	// Migrations holds the service's SQL files under "migrations".
	Migrations fs.FS
	Build      func(ctx context.Context, deps *Deps) (*App, error)
}

// Execute runs the service command and exits non-zero on failure.
func Execute(svc Service) {
	if err := NewRootCommand(svc).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand(svc Service) *cobra.Command {
	var configPath string
	var migrateOnStart bool

	serve := func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), svc, configPath, migrateOnStart)
	}

	rootCmd := &cobra.Command{
		Use:           svc.Name,
		Short:         "Run the " + svc.Name,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	rootCmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "apply pending migrations before serving")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP and consume the service topic",
		RunE:  serve,
	}
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)

	if svc.Needs&config.NeedDatabase != 0 {
		rootCmd.AddCommand(&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context(), svc, configPath)
			},
		})
	}
	return rootCmd
}

func loadConfig(svc Service, path string, needs config.Needs) (*config.Config, error) {
	cfg, err := config.Load(svc.Name, svc.Topic, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(needs); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// migrationsTable keeps one version table per service in a shared database.
func migrationsTable(service string) string {
	return strings.ReplaceAll(service, "-", "_") + "_schema_migrations"
}

func runMigrate(ctx context.Context, svc Service, path string) error {
	cfg, err := loadConfig(svc, path, config.NeedDatabase)
	if err != nil {
		return err
	}
	logger := logging.New(svc.Name, cfg.LogLevel)

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db, svc.Migrations, "migrations", migrationsTable(svc.Name)); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runServe(ctx context.Context, svc Service, path string, migrateOnStart bool) error {
	cfg, err := loadConfig(svc, path, svc.Needs)
	if err != nil {
		return err
	}
	logger := logging.New(svc.Name, cfg.LogLevel)
	slog.SetDefault(logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := &Deps{Config: cfg, Logger: logger}

	if svc.Needs&config.NeedDatabase != 0 {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if migrateOnStart && svc.Migrations != nil {
			if err := store.Migrate(db, svc.Migrations, "migrations", migrationsTable(svc.Name)); err != nil {
				return err
			}
		}
		deps.DB = db
	}

	if svc.Needs&config.NeedBroker != 0 {
		broker, err := events.OpenBroker(ctx, cfg)
		if err != nil {
			return err
		}
		defer broker.Close()
		deps.Broker = broker
	}

	app, err := svc.Build(ctx, deps)
	if err != nil {
		return fmt.Errorf("building %s: %w", svc.Name, err)
	}
	if app.Close != nil {
		defer app.Close()
	}

	var consumer *events.Consumer
	if deps.Broker != nil {
		handler := app.EventHandler
		if handler == nil {
			handler = events.LogHandler(logger)
		}
		source := deps.Broker.Source(events.SubscriberConfig{
			Group:    cfg.Broker.ConsumerGroup,
			Consumer: cfg.Broker.ConsumerName,
			Stream:   cfg.Broker.Topic,
			Handler:  handler,
			Logger:   logger,
		})
		consumer = events.NewConsumer(source, events.ConsumerConfig{Name: cfg.Broker.Topic, Logger: logger})
	}

	logger.Info("starting service",
		slog.String("port", cfg.Port),
		slog.String("broker", cfg.Broker.Driver),
		slog.String("topic", cfg.Broker.Topic),
	)
	return server.New(server.DefaultConfig(cfg.Port), app.Handler, consumer, logger).Run(ctx)
}
