package main

import (
	"context"
	"fmt"

	"github.com/eaglemart/platform/shared/auth"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/server"
	usercmd "github.com/eaglemart/platform/user-service/internal/command"
	"github.com/eaglemart/platform/user-service/internal/handler"
	userqry "github.com/eaglemart/platform/user-service/internal/query"
	"github.com/eaglemart/platform/user-service/internal/repository"
)

func main() {
	cli.Execute(cli.Service{
		Name:       "user-service",
		Topic:      events.UsersTopic,
		Needs:      config.NeedDatabase | config.NeedBroker | config.NeedAuth,
		Migrations: repository.Migrations,
		Build:      build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	cfg := deps.Config.Auth
	tokens, err := auth.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	// --- CQRS wiring ---
	repo := repository.NewUserRepository(deps.DB)
	commandSvc := usercmd.NewUserCommandService(deps.DB, deps.Broker)
	querySvc := userqry.NewUserQueryService(repo)
	authSvc := userqry.NewAuthQueryService(repo, tokens)

	router := server.NewRouter(deps.Logger)
	handler.NewUserHandler(commandSvc, querySvc, authSvc).RegisterRoutes(router, middleware.AuthMiddleware(tokens))

	return &cli.App{Handler: router}, nil
}
