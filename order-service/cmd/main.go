package main

import (
	"context"

	ordercmd "github.com/eaglemart/platform/order-service/internal/command"
	"github.com/eaglemart/platform/order-service/internal/handler"
	orderqry "github.com/eaglemart/platform/order-service/internal/query"
	"github.com/eaglemart/platform/order-service/internal/repository"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/server"
)

func main() {
	cli.Execute(cli.Service{
		Name:       "order-service",
		Topic:      events.OrdersTopic,
		Needs:      config.NeedDatabase | config.NeedBroker,
		Migrations: repository.Migrations,
		Build:      build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	commandSvc := ordercmd.NewOrderCommandService(deps.DB, deps.Broker)
	querySvc := orderqry.NewOrderQueryService(repository.NewOrderRepository(deps.DB))

	router := server.NewRouter(deps.Logger)
	handler.NewOrderHandler(commandSvc, querySvc).RegisterRoutes(router)

	return &cli.App{Handler: router}, nil
}
