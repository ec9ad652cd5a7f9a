package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eaglemart/platform/api-gateway/internal/proxy"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/server"
)

func main() {
	cli.Execute(cli.Service{
		Name:  "api-gateway",
		Needs: config.NeedUpstreams,
		Build: build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	router := server.NewRouter(deps.Logger)
	gw := proxy.New(deps.Config.Upstreams, &http.Client{Timeout: 30 * time.Second}, deps.Logger)
	for _, prefix := range gw.RegisterRoutes(router) {
		deps.Logger.Warn("route disabled: upstream not configured", slog.String("prefix", prefix))
	}
	return &cli.App{Handler: router}, nil
}
