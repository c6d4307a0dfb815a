package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// R2Config - доступ к Cloudflare R2 для выгрузки снимков сетки. Необязателен.
type R2Config struct {
	AccountID       string `env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	BucketName      string `env:"R2_BUCKET_NAME"`
	PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`
}

// Enabled - выгрузка включена, только если заданы все поля.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != "" && c.PublicBaseURL != ""
}

func (c R2Config) partial() bool {
	return !c.Enabled() && (c.AccountID != "" || c.AccessKeyID != "" || c.SecretAccessKey != "" || c.BucketName != "" || c.PublicBaseURL != "")
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL      string        `env:"DATABASE_URL,required,notEmpty"`
	ServerPort       int           `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel         slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	MigrateOnStart   bool          `env:"MIGRATE_ON_START" envDefault:"true"`

	AllocationMaxRetries int           `env:"ALLOCATION_MAX_RETRIES" envDefault:"5"`
	AllocationRetryMin   time.Duration `env:"ALLOCATION_RETRY_MIN" envDefault:"20ms"`
	AllocationRetryMax   time.Duration `env:"ALLOCATION_RETRY_MAX" envDefault:"500ms"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Ограничение записи с одного IP; 0 выключает.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	R2 R2Config
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort))
	}
	if c.DBConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", c.DBConnectTimeout))
	}
	if c.AllocationMaxRetries < 1 {
		errs = append(errs, fmt.Errorf("ALLOCATION_MAX_RETRIES must be at least 1, got %d", c.AllocationMaxRetries))
	}
	if c.AllocationRetryMin <= 0 || c.AllocationRetryMax < c.AllocationRetryMin {
		errs = append(errs, fmt.Errorf("ALLOCATION_RETRY_MIN (%s) must be positive and not above ALLOCATION_RETRY_MAX (%s)",
			c.AllocationRetryMin, c.AllocationRetryMax))
	}
	if len(c.CORSAllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must not be empty"))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst))
	}
	if c.R2.partial() {
		errs = append(errs, errors.New("R2 storage is partially configured: set all R2_* variables or none"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
