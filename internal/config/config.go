package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Loyalty  LoyaltyConfig
	SMTP     SMTPConfig
	Notify   NotifyConfig
	Khalti   KhaltiConfig
	Esewa    EsewaConfig
	Payment  PaymentConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Env            string
	Port           string
	Debug          bool
	LogPath        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LoyaltyConfig struct {
	// AwardPercent of finalAmount is credited as points on payment.
	AwardPercent int
}

type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
	UseSSL   bool
	Timeout  time.Duration
}

type NotifyConfig struct {
	Timeout time.Duration
}

type KhaltiConfig struct {
	BaseURL   string
	SecretKey string
}

type EsewaConfig struct {
	StatusURL   string
	ProductCode string
}

type PaymentConfig struct {
	GatewayTimeout time.Duration
	RatePerMinute  int
	AttemptTTL     time.Duration
}

type RedisConfig struct {
	URL string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:            strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
			Port:           v.GetString("PORT"),
			Debug:          v.GetBool("DEBUG"),
			LogPath:        v.GetString("LOG_PATH"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{URL: v.GetString("DATABASE_URL")},
		JWT: JWTConfig{
			Secret: strings.TrimSpace(v.GetString("JWT_SECRET")),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Loyalty: LoyaltyConfig{AwardPercent: v.GetInt("LOYALTY_AWARD_PERCENT")},
		SMTP: SMTPConfig{
			Enabled:  v.GetBool("SMTP_ENABLED"),
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("SMTP_FROM"),
			UseSSL:   v.GetBool("SMTP_SSL"),
			Timeout:  v.GetDuration("SMTP_TIMEOUT"),
		},
		Notify: NotifyConfig{Timeout: v.GetDuration("NOTIFY_TIMEOUT")},
		Khalti: KhaltiConfig{
			BaseURL:   strings.TrimRight(v.GetString("KHALTI_BASE_URL"), "/"),
			SecretKey: v.GetString("KHALTI_SECRET_KEY"),
		},
		Esewa: EsewaConfig{
			StatusURL:   v.GetString("ESEWA_STATUS_URL"),
			ProductCode: v.GetString("ESEWA_PRODUCT_CODE"),
		},
		Payment: PaymentConfig{
			GatewayTimeout: v.GetDuration("GATEWAY_TIMEOUT"),
			RatePerMinute:  v.GetInt("PAYMENT_RATE_PER_MINUTE"),
			AttemptTTL:     v.GetDuration("PAYMENT_ATTEMPT_TTL"),
		},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("DATABASE_URL", "workshop.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LOYALTY_AWARD_PERCENT", 10)
	v.SetDefault("SMTP_ENABLED", false)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@bikeworkshop.local")
	v.SetDefault("SMTP_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_TIMEOUT", "30s")
	v.SetDefault("KHALTI_BASE_URL", "https://khalti.com/api/v2")
	v.SetDefault("ESEWA_STATUS_URL", "https://rc.esewa.com.np/api/epay/transaction/status/")
	v.SetDefault("ESEWA_PRODUCT_CODE", "EPAYTEST")
	v.SetDefault("GATEWAY_TIMEOUT", "15s")
	v.SetDefault("PAYMENT_RATE_PER_MINUTE", 30)
	v.SetDefault("PAYMENT_ATTEMPT_TTL", "2h")
}

func validateConfig(cfg *Config) error {
	if cfg.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Notify.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be > 0")
	}
	if cfg.Payment.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be > 0")
	}
	if cfg.Payment.AttemptTTL <= 0 {
		return fmt.Errorf("PAYMENT_ATTEMPT_TTL must be > 0")
	}
	if cfg.Payment.RatePerMinute <= 0 {
		return fmt.Errorf("PAYMENT_RATE_PER_MINUTE must be > 0")
	}
	if cfg.Loyalty.AwardPercent < 1 || cfg.Loyalty.AwardPercent > 100 {
		return fmt.Errorf("LOYALTY_AWARD_PERCENT must be between 1 and 100")
	}
	if cfg.SMTP.Enabled && (cfg.SMTP.Host == "" || cfg.SMTP.From == "") {
		return fmt.Errorf("SMTP_HOST and SMTP_FROM are required when SMTP_ENABLED=true")
	}

	if IsProdLike(cfg.App.Env) {
		if isEmptyOrDefault(cfg.JWT.Secret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if strings.TrimSpace(cfg.Khalti.SecretKey) == "" {
			return fmt.Errorf("in prod/release KHALTI_SECRET_KEY must be set")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
