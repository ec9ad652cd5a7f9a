package events

import (
	"context"
	"fmt"

	"github.com/eaglemart/platform/shared/config"
	sharedredis "github.com/eaglemart/platform/shared/redis"
)

// Broker is the process-wide broker handle: it publishes, hands out the
// service's topic subscription and owns the underlying connection.
type Broker interface {
	Publisher
	Source(cfg SubscriberConfig) Source
	Close() error
}

// RedisBroker uses Redis streams for both directions.
type RedisBroker struct {
	*RedisPublisher
	client *sharedredis.Client
}

func NewRedisBroker(client *sharedredis.Client, source string, cfg config.BrokerConfig) *RedisBroker {
	return &RedisBroker{
		RedisPublisher: NewRedisPublisher(client.Client, source, cfg.PublishTimeout),
		client:         client,
	}
}

func (b *RedisBroker) Source(cfg SubscriberConfig) Source {
	return NewSubscriber(b.client.Client, cfg)
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// OpenBroker connects to the broker selected by cfg.Broker.Driver.
func OpenBroker(ctx context.Context, cfg *config.Config) (Broker, error) {
	switch cfg.Broker.Driver {
	case "redis":
		client, err := sharedredis.NewClient(ctx, cfg.Service+"-broker", cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisBroker(client, cfg.Service, cfg.Broker), nil
	case "nats":
		return ConnectJetStream(cfg.Broker.NATSURL, cfg.Service, cfg.Broker.PublishTimeout)
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Broker.Driver)
	}
}

var (
	_ Broker = (*RedisBroker)(nil)
	_ Broker = (*JetStream)(nil)
	_ Source = (*Subscriber)(nil)
)
