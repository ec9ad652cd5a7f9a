package main

import (
	"context"
	"log/slog"

	productcmd "github.com/eaglemart/platform/product-service/internal/command"
	"github.com/eaglemart/platform/product-service/internal/handler"
	productqry "github.com/eaglemart/platform/product-service/internal/query"
	"github.com/eaglemart/platform/product-service/internal/repository"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	sharedredis "github.com/eaglemart/platform/shared/redis"
	"github.com/eaglemart/platform/shared/server"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cli.Execute(cli.Service{
		Name:       "product-service",
		Topic:      events.ProductsTopic,
		Needs:      config.NeedDatabase | config.NeedBroker,
		Migrations: repository.Migrations,
		Build:      build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	cfg := deps.Config

	// The read-model cache is optional: without Redis every read goes to
	// PostgreSQL.
	var cacheClient *goredis.Client
	cache, err := sharedredis.NewClient(ctx, cfg.Service+"-cache", cfg.Redis)
	if err != nil {
		deps.Logger.Warn("product cache disabled", slog.Any("error", err))
	} else {
		cacheClient = cache.Client
	}

	// --- CQRS wiring ---
	readRepo := repository.NewProductReadRepository(deps.DB, cacheClient, cfg.CacheTTL)
	commandSvc := productcmd.NewProductCommandService(deps.DB, readRepo, deps.Broker)
	querySvc := productqry.NewProductQueryService(readRepo)

	router := server.NewRouter(deps.Logger)
	handler.NewProductHandler(commandSvc, querySvc).RegisterRoutes(router)

	return &cli.App{
		Handler:      router,
		EventHandler: events.LogHandler(deps.Logger),
		Close: func() error {
			if cache != nil {
				return cache.Close()
			}
			return nil
		},
	}, nil
}
