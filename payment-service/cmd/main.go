package main

import (
	"context"

	paymentcmd "github.com/eaglemart/platform/payment-service/internal/command"
	"github.com/eaglemart/platform/payment-service/internal/handler"
	"github.com/eaglemart/platform/payment-service/internal/provider"
	paymentqry "github.com/eaglemart/platform/payment-service/internal/query"
	"github.com/eaglemart/platform/payment-service/internal/repository"
	"github.com/eaglemart/platform/shared/cli"
	"github.com/eaglemart/platform/shared/config"
	"github.com/eaglemart/platform/shared/events"
	"github.com/eaglemart/platform/shared/server"
)

func main() {
	cli.Execute(cli.Service{
		Name:       "payment-service",
		Topic:      events.PaymentsTopic,
		Needs:      config.NeedDatabase | config.NeedBroker | config.NeedStripe,
		Migrations: repository.Migrations,
		Build:      build,
	})
}

func build(ctx context.Context, deps *cli.Deps) (*cli.App, error) {
	stripe := provider.NewStripe(deps.Config.Stripe.APIKey, deps.Config.Stripe.EndpointSecret)

	commandSvc := paymentcmd.NewPaymentCommandService(deps.DB, deps.Broker, stripe, deps.Logger)
	querySvc := paymentqry.NewPaymentQueryService(repository.NewPaymentRepository(deps.DB))

	router := server.NewRouter(deps.Logger)
	handler.NewPaymentHandler(commandSvc, querySvc).RegisterRoutes(router)

	return &cli.App{Handler: router}, nil
}
