package main

import (
	"context"

	notificationcmd "github.com/eaglemart/platform/notification-service/internal/command"
	"github.com/eaglemart/platform/notification-service/internal/handler"
	notificationqry "github.com/eaglemart/platform/notification-service/internal/query"
	"github.com/eaglemart/platform/notification-service/internal/repository"
	"github.com/eaglemart/platform/notification-service/internal/sender"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/server"
)

func main() {
	cli.Execute(cli.Service{
		Name:       "notification-service",
		Topic:      events.NotificationsTopic,
		Needs:      config.NeedDatabase | config.NeedBroker,
		Migrations: repository.Migrations,
		Build:      build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	commandSvc := notificationcmd.NewNotificationCommandService(deps.DB, sender.NewLogSender(deps.Logger), deps.Broker)
	querySvc := notificationqry.NewNotificationQueryService(repository.NewNotificationRepository(deps.DB))

	router := server.NewRouter(deps.Logger)
	handler.NewNotificationHandler(commandSvc, querySvc).RegisterRoutes(router)

	return &cli.App{Handler: router}, nil
}
