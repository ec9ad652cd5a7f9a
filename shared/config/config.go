// Package config loads service configuration from defaults, an optional TOML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Service     string `toml:"service"`
	Port        string `toml:"port"`
	DatabaseURL string `toml:"database_url"`
	LogLevel    string `toml:"log_level"`

	Broker BrokerConfig `toml:"broker"`
	Redis  RedisConfig  `toml:"redis"`
	Auth   AuthConfig   `toml:"auth"`
	Stripe StripeConfig `toml:"stripe"`

	// CacheTTL bounds the lifetime of read-model cache entries; 0 keeps them
	// until invalidated.
	CacheTTL time.Duration `toml:"cache_ttl"`

	// Upstreams maps a service name to its base URL (gateway only).
	Upstreams map[string]string `toml:"upstreams"`
}

type BrokerConfig struct {
	Driver         string        `toml:"driver"` // "redis" or "nats"
	NATSURL        string        `toml:"nats_url"`
	Topic          string        `toml:"topic"`
	ConsumerGroup  string        `toml:"consumer_group"`
	ConsumerName   string        `toml:"consumer_name"`
	PublishTimeout time.Duration `toml:"publish_timeout"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

type AuthConfig struct {
	SecretKey string        `toml:"secret_key"`
	Algorithm string        `toml:"algorithm"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type StripeConfig struct {
	APIKey         string `toml:"api_key"`
	EndpointSecret string `toml:"endpoint_secret"`
}

// Needs selects the sections Validate treats as required.
type Needs uint8

const (
	NeedDatabase Needs = 1 << iota
	NeedBroker
	NeedAuth
	NeedStripe
	NeedUpstreams
)

// Defaults returns the baseline configuration for a service. topic is the
// broker topic the service owns.
func Defaults(service, topic string) *Config {
	return &Config{
		Service:  service,
		Port:     "8080",
		LogLevel: "info",
		Broker: BrokerConfig{
			Driver:         "redis",
			Topic:          topic,
			ConsumerGroup:  service + "-group",
			ConsumerName:   defaultConsumerName(service),
			PublishTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Auth: AuthConfig{
			Algorithm: "HS256",
			TokenTTL:  30 * time.Minute,
		},
		Upstreams: map[string]string{},
	}
}

// defaultConsumerName identifies this replica within the service's consumer
// group. Replicas must not share a name, or they would share one pending list.
func defaultConsumerName(service string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return service + "-" + strconv.Itoa(os.Getpid())
	}
	return service + "-" + host
}

// Load applies the TOML file at path (if non-empty) and then the environment
// on top of Defaults(service, topic).
func Load(service, topic, path string) (*Config, error) {
	cfg := Defaults(service, topic)
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Broker.Driver, "BROKER_DRIVER")
	setString(&c.Broker.NATSURL, "NATS_URL")
	setString(&c.Broker.Topic, "BROKER_TOPIC")
	setString(&c.Broker.ConsumerGroup, "CONSUMER_GROUP_ID")
	setString(&c.Broker.ConsumerName, "CONSUMER_NAME")
	if err := setDuration(&c.Broker.PublishTimeout, "BROKER_PUBLISH_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("REDIS_POOL_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_POOL_SIZE: %w", err)
		}
		c.Redis.PoolSize = size
	}

	setString(&c.Auth.SecretKey, "SECRET_KEY")
	setString(&c.Auth.Algorithm, "ALGORITHM")
	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		c.Auth.TokenTTL = time.Duration(minutes) * time.Minute
	}

	setString(&c.Stripe.APIKey, "STRIPE_API_KEY")
	setString(&c.Stripe.EndpointSecret, "STRIPE_ENDPOINT_SECRET")

	if err := setDuration(&c.CacheTTL, "CACHE_TTL"); err != nil {
		return err
	}

	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		name, ok := strings.CutSuffix(key, "_SERVICE_URL")
		if !ok || value == "" {
			continue
		}
		if c.Upstreams == nil {
			c.Upstreams = map[string]string{}
		}
		c.Upstreams[strings.ToLower(name)] = strings.TrimSuffix(value, "/")
	}
	return nil
}

// Validate reports every missing or invalid required value at once.
func (c *Config) Validate(needs Needs) error {
	var problems []error
	if c.Port == "" {
		problems = append(problems, errors.New("PORT is required"))
	}
	if needs&NeedDatabase != 0 && c.DatabaseURL == "" {
		problems = append(problems, errors.New("DATABASE_URL is required"))
	}
	if needs&NeedBroker != 0 {
		switch c.Broker.Driver {
		case "redis":
			if c.Redis.Addr == "" {
				problems = append(problems, errors.New("REDIS_ADDR is required for the redis broker"))
			}
		case "nats":
			if c.Broker.NATSURL == "" {
				problems = append(problems, errors.New("NATS_URL is required for the nats broker"))
			}
		default:
			problems = append(problems, fmt.Errorf("BROKER_DRIVER %q is not one of redis, nats", c.Broker.Driver))
		}
		if c.Broker.Topic == "" {
			problems = append(problems, errors.New("BROKER_TOPIC is required"))
		}
		if c.Broker.ConsumerGroup == "" {
			problems = append(problems, errors.New("CONSUMER_GROUP_ID is required"))
		}
		if c.Broker.ConsumerName == "" {
			problems = append(problems, errors.New("CONSUMER_NAME is required"))
		}
		if c.Broker.PublishTimeout <= 0 {
			problems = append(problems, errors.New("BROKER_PUBLISH_TIMEOUT must be positive"))
		}
	}
	if needs&NeedAuth != 0 {
		if c.Auth.SecretKey == "" {
			problems = append(problems, errors.New("SECRET_KEY is required"))
		}
		switch c.Auth.Algorithm {
		case "HS256", "HS384", "HS512":
		default:
			problems = append(problems, fmt.Errorf("ALGORITHM %q is not one of HS256, HS384, HS512", c.Auth.Algorithm))
		}
		if c.Auth.TokenTTL <= 0 {
			problems = append(problems, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
		}
	}
	if needs&NeedStripe != 0 {
		if c.Stripe.APIKey == "" {
			problems = append(problems, errors.New("STRIPE_API_KEY is required"))
		}
		if c.Stripe.EndpointSecret == "" {
			problems = append(problems, errors.New("STRIPE_ENDPOINT_SECRET is required"))
		}
	}
	if needs&NeedUpstreams != 0 && len(c.Upstreams) == 0 {
		problems = append(problems, errors.New("at least one *_SERVICE_URL is required"))
	}
	return errors.Join(problems...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
