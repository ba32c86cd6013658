package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	PublicBaseURL string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Mail          MailConfig
	Notifications NotificationConfig
	Intake        IntakeConfig
	FollowUp      FollowUpConfig
	Schools       SchoolConfig
	Sentry        SentryConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig selects the outbound mail transport.
type MailConfig struct {
	Provider       string
	FromName       string
	FromAddress    string
	ResendAPIKey   string
	ResendBaseURL  string
	SendgridAPIKey string
	Timeout        time.Duration
}

// NotificationConfig tunes the notification worker pool.
type NotificationConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// IntakeConfig governs reference code issuance.
type IntakeConfig struct {
	MaxCodeAttempts int
}

// FollowUpConfig limits reference code lookups per client.
type FollowUpConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

// SchoolConfig controls the school directory cache.
type SchoolConfig struct {
	CacheTTL time.Duration
}

type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicBaseURL = strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		Provider:       strings.ToLower(v.GetString("MAIL_PROVIDER")),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		ResendAPIKey:   v.GetString("RESEND_API_KEY"),
		ResendBaseURL:  v.GetString("RESEND_BASE_URL"),
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		Timeout:        parseDuration(v.GetString("MAIL_TIMEOUT"), 10*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		MaxRetries: v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Intake = IntakeConfig{
		MaxCodeAttempts: v.GetInt("REFERENCE_CODE_MAX_ATTEMPTS"),
	}

	cfg.FollowUp = FollowUpConfig{
		RateLimit:  v.GetInt("FOLLOWUP_RATE_LIMIT"),
		RateWindow: parseDuration(v.GetString("FOLLOWUP_RATE_WINDOW"), time.Minute),
	}

	cfg.Schools = SchoolConfig{
		CacheTTL: parseDuration(v.GetString("SCHOOL_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Sentry = SentryConfig{
		DSN:              v.GetString("SENTRY_DSN"),
		TracesSampleRate: v.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "upstander")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "upstander-api")
	v.SetDefault("JWT_EXPIRATION", "12h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_PROVIDER", "log")
	v.SetDefault("MAIL_FROM_NAME", "Upstander")
	v.SetDefault("MAIL_FROM_ADDRESS", "noreply@upstander.help")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_TIMEOUT", "10s")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 2)
	v.SetDefault("NOTIFY_RETRY_DELAY", "5s")

	v.SetDefault("REFERENCE_CODE_MAX_ATTEMPTS", 5)

	v.SetDefault("FOLLOWUP_RATE_LIMIT", 20)
	v.SetDefault("FOLLOWUP_RATE_WINDOW", "1m")

	v.SetDefault("SCHOOL_CACHE_TTL", "10m")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
