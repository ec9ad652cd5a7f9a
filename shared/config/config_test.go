package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// configEnvVars lists every variable applyEnv reads, cleared between tests.
var configEnvVars = []string{
	"PORT", "DATABASE_URL", "LOG_LEVEL", "BROKER_DRIVER", "NATS_URL", "BROKER_TOPIC",
	"CONSUMER_GROUP_ID", "CONSUMER_NAME", "BROKER_PUBLISH_TIMEOUT", "REDIS_ADDR",
	"REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE", "SECRET_KEY", "ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES",
	"STRIPE_API_KEY", "STRIPE_ENDPOINT_SECRET", "CACHE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("product-service", "products", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker.Topic != "products" {
		t.Errorf("Topic = %q, want products", cfg.Broker.Topic)
	}
	if cfg.Broker.ConsumerGroup != "product-service-group" {
		t.Errorf("ConsumerGroup = %q", cfg.Broker.ConsumerGroup)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
}

func TestDefaultConsumerNameIsPerHost(t *testing.T) {
	clearEnv(t)
	host, err := os.Hostname()
	if err != nil {
		t.Skipf("hostname unavailable: %v", err)
	}
	cfg, err := Load("order-service", "orders", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := "order-service-" + host; cfg.Broker.ConsumerName != want {
		t.Errorf("ConsumerName = %q, want %q", cfg.Broker.ConsumerName, want)
	}

	t.Setenv("CONSUMER_NAME", "order-service-a")
	cfg, err = Load("order-service", "orders", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker.ConsumerName != "order-service-a" {
		t.Errorf("CONSUMER_NAME not applied: %q", cfg.Broker.ConsumerName)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "svc.toml")
	content := `
port = "9000"
database_url = "postgres://file"

[broker]
driver = "nats"
nats_url = "nats://file:4222"
publish_timeout = "2s"

[auth]
secret_key = "from-file"
token_ttl = "15m"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")

	cfg, err := Load("user-service", "users", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Errorf("DatabaseURL = %q, env should win over file", cfg.DatabaseURL)
	}
	if cfg.Broker.Driver != "nats" || cfg.Broker.NATSURL != "nats://file:4222" {
		t.Errorf("broker = %+v", cfg.Broker)
	}
	if cfg.Broker.PublishTimeout != 2*time.Second {
		t.Errorf("PublishTimeout = %v", cfg.Broker.PublishTimeout)
	}
	if cfg.Auth.TokenTTL != 45*time.Minute {
		t.Errorf("TokenTTL = %v, want 45m", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.SecretKey != "from-file" {
		t.Errorf("SecretKey = %q", cfg.Auth.SecretKey)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "thirty")
	if _, err := Load("user-service", "users", ""); err == nil {
		t.Fatal("expected error for non-numeric ACCESS_TOKEN_EXPIRE_MINUTES")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		needs   Needs
		wantErr string
	}{
		{
			name:  "complete user-service config",
			needs: NeedDatabase | NeedBroker | NeedAuth,
			mutate: func(c *Config) {
				c.DatabaseURL = "postgres://x"
				c.Auth.SecretKey = "s3cret"
			},
		},
		{
			name:    "missing secret fails",
			needs:   NeedAuth,
			mutate:  func(c *Config) {},
			wantErr: "SECRET_KEY is required",
		},
		{
			name:    "missing database fails",
			needs:   NeedDatabase,
			mutate:  func(c *Config) {},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:  "unsupported algorithm fails",
			needs: NeedAuth,
			mutate: func(c *Config) {
				c.Auth.SecretKey = "s3cret"
				c.Auth.Algorithm = "none"
			},
			wantErr: "ALGORITHM",
		},
		{
			name:  "nats driver needs url",
			needs: NeedBroker,
			mutate: func(c *Config) {
				c.Broker.Driver = "nats"
			},
			wantErr: "NATS_URL is required",
		},
		{
			name:  "empty topic fails",
			needs: NeedBroker,
			mutate: func(c *Config) {
				c.Broker.Topic = ""
			},
			wantErr: "BROKER_TOPIC is required",
		},
		{
			name:    "stripe keys required",
			needs:   NeedStripe,
			mutate:  func(c *Config) {},
			wantErr: "STRIPE_API_KEY is required",
		},
		{
			name:    "sections not needed are ignored",
			needs:   0,
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults("user-service", "users")
			tt.mutate(cfg)
			err := cfg.Validate(tt.needs)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
