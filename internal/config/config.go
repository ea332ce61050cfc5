package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Notification channels accepted by NOTIFY_CHANNEL.
const (
	ChannelLog      = "log"
	ChannelMailgun  = "mailgun"
	ChannelRabbitMQ = "rabbitmq"
	ChannelRedis    = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Store        StoreConfig
	Notification NotificationConfig
	Redis        RedisConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	JWTIssuer               string
	JWTAudience             string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// StoreConfig selects how long an in-memory user store lives.
type StoreConfig struct {
	Lifetime string
	Comment  string
}

// NotificationConfig selects and configures the password reset delivery channel.
type NotificationConfig struct {
	Channel        string
	EmailFrom      string
	ResetURL       string
	MailgunDomain  string
	MailgunAPIKey  string
	MailgunAPIBase string
	RabbitMQURL    string
	RabbitMQQueue  string
	RedisChannel   string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("JWT_SECRET_KEY", "default-secret-key"),
			JWTIssuer:               getEnv("JWT_ISSUER", "AuthServer"),
			JWTAudience:             getEnv("JWT_AUDIENCE", "AuthServer"),
			AccessTokenTTLMinutes:   getEnvAsInt("JWT_EXPIRATION_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Store: StoreConfig{
			Lifetime: getEnv("USER_REPOSITORY_LIFETIME", "Scoped"),
			Comment:  os.Getenv("USER_REPOSITORY_COMMENT"),
		},
		Notification: NotificationConfig{
			Channel:        strings.ToLower(getEnv("NOTIFY_CHANNEL", ChannelLog)),
			EmailFrom:      getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			ResetURL:       getEnv("NOTIFY_RESET_URL", "/reset-password"),
			MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
			MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
			MailgunAPIBase: os.Getenv("MAILGUN_API_BASE"),
			RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
			RabbitMQQueue:  getEnv("RABBITMQ_QUEUE", "email_jobs"),
			RedisChannel:   getEnv("REDIS_CHANNEL", "auth.password_reset"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}

	n := c.Notification
	switch n.Channel {
	case ChannelLog:
	case ChannelMailgun:
		if n.MailgunDomain == "" || n.MailgunAPIKey == "" {
			return fmt.Errorf("notify channel %q requires MAILGUN_DOMAIN and MAILGUN_API_KEY", n.Channel)
		}
	case ChannelRabbitMQ:
		if n.RabbitMQURL == "" {
			return fmt.Errorf("notify channel %q requires RABBITMQ_URL", n.Channel)
		}
	case ChannelRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("notify channel %q requires REDIS_ADDR", n.Channel)
		}
	default:
		return fmt.Errorf("unknown NOTIFY_CHANNEL %q", n.Channel)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ResetTTL returns how long a password reset token stays valid.
func (a AuthConfig) ResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
