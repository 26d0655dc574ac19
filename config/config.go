package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration loaded from environment variables.
// Optional integrations (Redis, RabbitMQ, Elasticsearch, GCS, Mailgun) stay off
// while their address is empty.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"user-directory"`
	Env     string `env:"APP_ENV" envDefault:"development"` // development, staging, production
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	// Storage: postgres, sqlite or memory
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	DBHost        string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string        `env:"DB_PORT" envDefault:"5432"`
	DBUser        string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword    string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName        string        `env:"DB_NAME" envDefault:"users"`
	DBSSLMode     string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns    int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLife time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"users.db"`

	// Redis: lookup cache and rate limiting
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`

	// Google Cloud Storage, for profile pictures
	GCSBucket          string `env:"GCS_BUCKET"`
	GCSCredentialsJSON string `env:"GCS_CREDENTIALS_JSON"` // file path or inline JSON; empty uses ADC

	// Identity tokens
	IdentityTokenSecret string `env:"IDENTITY_TOKEN_SECRET"`
	IdentityIssuer      string `env:"IDENTITY_ISSUER"`
	IdentityAudience    string `env:"IDENTITY_AUDIENCE"`
	RoleClaimPath       string `env:"ROLE_CLAIM_PATH" envDefault:"roles"`
	AdminRole           string `env:"ADMIN_ROLE" envDefault:"admin"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"` // comma-separated

	// RabbitMQ
	RabbitMQURL             string `env:"RABBITMQ_URL"`
	RabbitMQUserEventsQueue string `env:"RABBITMQ_USER_EVENTS_QUEUE" envDefault:"user-events"`

	// Elasticsearch
	ElasticsearchAddrs string `env:"ELASTICSEARCH_ADDRS"` // comma-separated
	ElasticsearchUser  string `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPass  string `env:"ELASTICSEARCH_PASSWORD"`
	ESUsersIndex       string `env:"ES_USERS_INDEX" envDefault:"users"`

	// Mailgun
	MailgunDomain   string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey   string `env:"MAILGUN_API_KEY"`
	MailgunSender   string `env:"MAILGUN_SENDER"`
	MailSendEnabled bool   `env:"MAIL_SEND_ENABLED" envDefault:"false"`
	SupportURL      string `env:"SUPPORT_URL"`

	MetricsEnabled     bool   `env:"METRICS_ENABLED" envDefault:"true"`
	HTTPLogEnabled     bool   `env:"HTTP_LOG_ENABLED" envDefault:"false"`
	LogFile            string `env:"LOG_FILE"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.StorageDriver {
	case "postgres", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	return cfg, nil
}

// PostgresDSN builds a connection URL from the DB_* settings.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// CORSOrigins returns the allowed origins; empty means allow all.
func (c *Config) CORSOrigins() []string {
	return splitCSV(c.CORSAllowedOrigins)
}

func (c *Config) ESAddrs() []string {
	return splitCSV(c.ElasticsearchAddrs)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
