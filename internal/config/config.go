package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port        string `yaml:"port" envconfig:"PORT"`
	WebhookPath string `yaml:"webhook_path" envconfig:"WEBHOOK_PATH"`
	// AdminAPIKey guards the read-only booking API; empty leaves it unmounted
	AdminAPIKey string `yaml:"admin_api_key" envconfig:"ADMIN_API_KEY"`
}

// LineConfig holds Messaging API credentials
type LineConfig struct {
	ChannelSecret      string `yaml:"channel_secret" envconfig:"LINE_CHANNEL_SECRET"`
	ChannelAccessToken string `yaml:"channel_access_token" envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
	// AdminUserID receives a push for every confirmed booking; empty disables it
	AdminUserID string `yaml:"admin_user_id" envconfig:"LINE_ADMIN_USER_ID"`
	// APIEndpoint overrides https://api.line.me, used for local stubs
	APIEndpoint string `yaml:"api_endpoint" envconfig:"LINE_API_ENDPOINT"`
}

// SessionConfig controls where conversation state lives and for how long
type SessionConfig struct {
	Backend       string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`
}

// RedisConfig is used when the session backend is redis
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// DatabaseConfig enables booking persistence in PostgreSQL; empty DSN keeps bookings in memory
type DatabaseConfig struct {
	DSN string `yaml:"dsn" envconfig:"DATABASE_URL"`
}

// TwilioConfig enables WhatsApp alerts to an admin phone
type TwilioConfig struct {
	AccountSID   string `yaml:"account_sid" envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken    string `yaml:"auth_token" envconfig:"TWILIO_AUTH_TOKEN"`
	WhatsAppFrom string `yaml:"whatsapp_from" envconfig:"TWILIO_WHATSAPP_FROM"`
	AdminPhone   string `yaml:"admin_phone" envconfig:"TWILIO_ADMIN_PHONE"`
}

// Enabled reports whether every Twilio setting needed for admin alerts is present
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.WhatsAppFrom != "" && t.AdminPhone != ""
}

// OutboundConfig bounds calls to the Messaging API
type OutboundConfig struct {
	ReplyTimeout time.Duration `yaml:"reply_timeout" envconfig:"OUTBOUND_REPLY_TIMEOUT"`
	// BatchTimeout bounds all replies of one webhook delivery so the 200 goes out promptly
	BatchTimeout  time.Duration `yaml:"batch_timeout" envconfig:"OUTBOUND_BATCH_TIMEOUT"`
	PushRetries   int           `yaml:"push_retries" envconfig:"OUTBOUND_PUSH_RETRIES"`
	RatePerSecond float64       `yaml:"rate_per_second" envconfig:"OUTBOUND_RATE_PER_SECOND"`
}

// LoggingConfig selects log level and output format
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// Config aggregates every setting the service reads at startup
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Line     LineConfig     `yaml:"line"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Outbound OutboundConfig `yaml:"outbound"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Session backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Defaults
const (
	DefaultPort          = "8080"
	DefaultWebhookPath   = "/webhook/line"
	DefaultSessionTTL    = 15 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultReplyTimeout  = 5 * time.Second
	DefaultBatchTimeout  = 8 * time.Second
	DefaultPushRetries   = 3
	DefaultRatePerSecond = 20
	DefaultRedisAddr     = "localhost:6379"
)

var (
	// ErrMissingChannelSecret is returned when the webhook signing secret is not configured
	ErrMissingChannelSecret = errors.New("LINE_CHANNEL_SECRET is required")
	// ErrMissingAccessToken is returned when replies cannot be authenticated
	ErrMissingAccessToken = errors.New("LINE_CHANNEL_ACCESS_TOKEN is required")
)

// Load reads .env (if present), then the optional YAML file at path, then the environment.
func Load(path string) (*Config, error) {
	// .env is a local development convenience
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates required settings.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Line.ChannelSecret = strings.TrimSpace(cfg.Line.ChannelSecret)
	cfg.Line.ChannelAccessToken = strings.TrimSpace(cfg.Line.ChannelAccessToken)
	if cfg.Line.ChannelSecret == "" {
		return ErrMissingChannelSecret
	}
	if cfg.Line.ChannelAccessToken == "" {
		return ErrMissingAccessToken
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.WebhookPath == "" {
		cfg.Server.WebhookPath = DefaultWebhookPath
	}
	if !strings.HasPrefix(cfg.Server.WebhookPath, "/") {
		cfg.Server.WebhookPath = "/" + cfg.Server.WebhookPath
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	switch backend {
	case "":
		backend = BackendMemory
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", cfg.Session.Backend)
	}
	cfg.Session.Backend = backend
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Session.SweepInterval <= 0 {
		cfg.Session.SweepInterval = DefaultSweepInterval
	}
	if backend == BackendRedis && cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	if cfg.Outbound.ReplyTimeout <= 0 {
		cfg.Outbound.ReplyTimeout = DefaultReplyTimeout
	}
	if cfg.Outbound.BatchTimeout <= 0 {
		cfg.Outbound.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.Outbound.PushRetries <= 0 {
		cfg.Outbound.PushRetries = DefaultPushRetries
	}
	if cfg.Outbound.RatePerSecond <= 0 {
		cfg.Outbound.RatePerSecond = DefaultRatePerSecond
	}
	return nil
}
