package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthTokenTTL   time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`

	MediaBackend       string `mapstructure:"MEDIA_BACKEND"`
	MediaBucket        string `mapstructure:"MEDIA_BUCKET"`
	MediaPublicBaseURL string `mapstructure:"MEDIA_PUBLIC_BASE_URL"`

	EventsBackend string   `mapstructure:"EVENTS_BACKEND"`
	KafkaBrokers  []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic    string   `mapstructure:"KAFKA_TOPIC"`
	SQSQueueName  string   `mapstructure:"SQS_QUEUE_NAME"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`
}

// devSigningKey is only accepted when ENV=development.
const devSigningKey = "development-signing-key-change-me"

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "CORS_ORIGINS",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_TOKEN_TTL", "REDIS_URL",
	"MEDIA_BACKEND", "MEDIA_BUCKET", "MEDIA_PUBLIC_BASE_URL",
	"EVENTS_BACKEND", "KAFKA_BROKERS", "KAFKA_TOPIC", "SQS_QUEUE_NAME",
	"MIGRATIONS_DIR",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_ISSUER", "gestao-saude")
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("MEDIA_BACKEND", "memory")
	v.SetDefault("MEDIA_PUBLIC_BASE_URL", "http://localhost:8000/api/v1/midias")
	v.SetDefault("EVENTS_BACKEND", "none")
	v.SetDefault("KAFKA_TOPIC", "ocorrencias")
	v.SetDefault("MIGRATIONS_DIR", "")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AuthSigningKey == "" && cfg.IsDev() {
		cfg.AuthSigningKey = devSigningKey
	}

	return cfg, nil
}

// splitList accepts both repeated values and a single comma-separated value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate rejects configurations that cannot run safely.
func (c *Config) Validate() error {
	if !c.IsDev() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes outside development")
	}
	if !c.IsDev() && c.AuthSigningKey == devSigningKey {
		return fmt.Errorf("AUTH_SIGNING_KEY must be changed outside development")
	}
	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}

	switch c.MediaBackend {
	case "memory":
		if !c.IsDev() {
			return fmt.Errorf("MEDIA_BACKEND=memory is only allowed in development")
		}
	case "s3":
		if c.MediaBucket == "" {
			return fmt.Errorf("MEDIA_BUCKET is required when MEDIA_BACKEND is \"s3\"")
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be \"memory\" or \"s3\", got %q", c.MediaBackend)
	}

	switch c.EventsBackend {
	case "none":
	case "kafka":
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when EVENTS_BACKEND is \"kafka\"")
		}
	case "sqs":
		if c.SQSQueueName == "" {
			return fmt.Errorf("SQS_QUEUE_NAME is required when EVENTS_BACKEND is \"sqs\"")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be \"none\", \"kafka\" or \"sqs\", got %q", c.EventsBackend)
	}

	return nil
}
