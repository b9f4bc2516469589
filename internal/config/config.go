package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backends selectable through DB_TYPE.
const (
	DBPostgres = "postgres"
	DBMongo    = "mongo"
	DBMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string `envconfig:"PORT" default:"3001"`
	DBType        string `envconfig:"DB_TYPE" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MongoURL      string `envconfig:"MONGO_URL"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"brandconnect"`

	JWTSecret       string `envconfig:"JWT_SECRET"`
	JWTIssuer       string `envconfig:"JWT_ISSUER" default:"brandconnect-api"`
	JWTTTLMinutes   int    `envconfig:"JWT_TTL_MINUTES" default:"60"`
	RefreshTTLHours int    `envconfig:"REFRESH_TTL_HOURS" default:"720"`
	CookieSecure    bool   `envconfig:"COOKIE_SECURE" default:"false"`
	CookiePath      string `envconfig:"REFRESH_COOKIE_PATH" default:"/auth"`

	CORSOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	SeedDemoData bool     `envconfig:"SEED_DEMO_DATA" default:"false"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"brandconnect.events"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment  string `envconfig:"ENV" default:"development"`

	R2 R2Config `envconfig:"R2"`
}

// R2Config locates the Cloudflare R2 bucket used for profile images.
// Uploads are disabled unless every field is set.
type R2Config struct {
	AccountID       string `envconfig:"ACCOUNT_ID"`
	Bucket          string `envconfig:"BUCKET"`
	AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
	PublicURL       string `envconfig:"PUBLIC_URL"`
}

// Enabled reports whether all R2 settings are present.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.Bucket != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.PublicURL != ""
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg.DBType = strings.ToLower(strings.TrimSpace(cfg.DBType))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.CORSOrigins = cleanOrigins(cfg.CORSOrigins)
	cfg.CookiePath = "/" + strings.Trim(strings.TrimSpace(cfg.CookiePath), "/")
	if cfg.JWTTTLMinutes <= 0 {
		cfg.JWTTTLMinutes = 60
	}
	if cfg.RefreshTTLHours <= 0 {
		cfg.RefreshTTLHours = 720
	}

	switch cfg.DBType {
	case DBPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DBMongo:
		if cfg.MongoURL == "" {
			return Config{}, errors.New("MONGO_URL is required")
		}
	case DBMemory:
	default:
		return Config{}, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// AccessTTL is the lifetime of access tokens.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// RefreshTTL is the lifetime of refresh tokens.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}

func cleanOrigins(in []string) []string {
	var out []string
	for _, part := range in {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
