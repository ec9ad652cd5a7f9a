package main

import (
	"context"

	inventorycmd "github.com/eaglemart/platform/inventory-service/internal/command"
	"github.com/eaglemart/platform/inventory-service/internal/handler"
	inventoryqry "github.com/eaglemart/platform/inventory-service/internal/query"
	"github.com/eaglemart/platform/inventory-service/internal/repository"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/server"
)

func main() {
	cli.Execute(cli.Service{
		Name:       "inventory-service",
		Topic:      events.InventoryTopic,
		Needs:      config.NeedDatabase | config.NeedBroker,
		Migrations: repository.Migrations,
		Build:      build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	commandSvc := inventorycmd.NewInventoryCommandService(deps.DB, deps.Broker)
	querySvc := inventoryqry.NewInventoryQueryService(repository.NewInventoryRepository(deps.DB))

	router := server.NewRouter(deps.Logger)
	handler.NewInventoryHandler(commandSvc, querySvc).RegisterRoutes(router)

	return &cli.App{Handler: router}, nil
}
