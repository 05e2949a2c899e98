package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const EnvDevelopment = "development"

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Scheduling SchedulingConfig
	Mail       MailConfig
	SMS        SMSConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Port            string
	Env             string
	CORSAllowOrigin string
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// SchedulingConfig holds the booking and penalty thresholds.
type SchedulingConfig struct {
	OverlapWindow              time.Duration
	LateCancellationWindow     time.Duration
	RescheduleCutoff           time.Duration
	LateCancellationPercentage decimal.Decimal
	MaxAdvanceMonths           int
	StrictCompletion           bool
	DefaultDurationMinutes     int
}

type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
}

// Enabled reports whether a real SMTP server is configured.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.Username != ""
}

type SMSConfig struct {
	Enabled bool
	Sender  string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// TrustedProxies lists the CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")

	v.SetDefault("CORS_ALLOW_ORIGIN", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_EXPIRY", "720h")

	v.SetDefault("APPOINTMENT_OVERLAP_WINDOW", "30m")
	v.SetDefault("APPOINTMENT_LATE_CANCELLATION_WINDOW", "24h")
	v.SetDefault("APPOINTMENT_RESCHEDULE_CUTOFF", "48h")
	v.SetDefault("APPOINTMENT_LATE_CANCELLATION_PERCENTAGE", "20")
	v.SetDefault("APPOINTMENT_MAX_ADVANCE_MONTHS", 3)
	v.SetDefault("APPOINTMENT_STRICT_COMPLETION", true)
	v.SetDefault("APPOINTMENT_DEFAULT_DURATION_MINUTES", 60)

	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@dental-clinic.local")
	v.SetDefault("MAIL_SEND_TIMEOUT", "15s")

	v.SetDefault("SMS_ENABLED", false)
	v.SetDefault("SMS_SENDER", "DentalClinic")

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

// LoadConfig reads configuration from .env (if present) and the environment.
func LoadConfig() (*Config, error) {
	return loadFrom(viper.New(), ".env")
}

func loadFrom(v *viper.Viper, envFile string) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	percentage, err := decimal.NewFromString(v.GetString("APPOINTMENT_LATE_CANCELLATION_PERCENTAGE"))
	if err != nil {
		percentage = decimal.NewFromInt(20)
	}

	config := &Config{
		App: AppConfig{
			Port:            v.GetString("APP_PORT"),
			Env:             v.GetString("APP_ENV"),
			CORSAllowOrigin: v.GetString("CORS_ALLOW_ORIGIN"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Expiry: durationOr(v, "JWT_EXPIRY", 30*24*time.Hour),
		},
		Scheduling: SchedulingConfig{
			OverlapWindow:              durationOr(v, "APPOINTMENT_OVERLAP_WINDOW", 30*time.Minute),
			LateCancellationWindow:     durationOr(v, "APPOINTMENT_LATE_CANCELLATION_WINDOW", 24*time.Hour),
			RescheduleCutoff:           durationOr(v, "APPOINTMENT_RESCHEDULE_CUTOFF", 48*time.Hour),
			LateCancellationPercentage: percentage,
			MaxAdvanceMonths:           v.GetInt("APPOINTMENT_MAX_ADVANCE_MONTHS"),
			StrictCompletion:           v.GetBool("APPOINTMENT_STRICT_COMPLETION"),
			DefaultDurationMinutes:     v.GetInt("APPOINTMENT_DEFAULT_DURATION_MINUTES"),
		},
		Mail: MailConfig{
			Host:        v.GetString("MAIL_HOST"),
			Port:        v.GetInt("MAIL_PORT"),
			Username:    v.GetString("MAIL_USERNAME"),
			Password:    v.GetString("MAIL_PASSWORD"),
			From:        v.GetString("MAIL_FROM"),
			SendTimeout: durationOr(v, "MAIL_SEND_TIMEOUT", 15*time.Second),
		},
		SMS: SMSConfig{
			Enabled: v.GetBool("SMS_ENABLED"),
			Sender:  v.GetString("SMS_SENDER"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
			TrustedProxies:    splitList(v.GetString("RATE_LIMIT_TRUSTED_PROXIES")),
		},
	}

	if config.JWT.Secret == "" {
		return nil, ErrMissingJWTSecret
	}

	return config, nil
}

// splitList parses a comma separated value, dropping empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
