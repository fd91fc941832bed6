package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	ArchiveNone     = "none"
	ArchiveRedis    = "redis"
	ArchivePostgres = "postgres"
)

type Config struct {
	Port              string        `env:"PORT,default=8080"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	MaxStoredMessages int           `env:"MAX_STORED_MESSAGES,default=200"`
	MaxMessageLength  int           `env:"MAX_MESSAGE_LENGTH,default=1000"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256"`
	ArchiveDriver     string        `env:"ARCHIVE_DRIVER,default=none"`
	ArchiveQueueSize  int           `env:"ARCHIVE_QUEUE_SIZE,default=1024"`
	RedisURL          string        `env:"REDIS_URL"`
	RedisHistoryKey   string        `env:"REDIS_HISTORY_KEY,default=relay:messages"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	CheckOrigin       bool          `env:"CHECK_ORIGIN,default=false"`
}

// Load reads .env.local, then .env, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug(".env not found, using environment variables")
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxStoredMessages <= 0 {
		return errors.New("MAX_STORED_MESSAGES must be positive")
	}
	if c.MaxMessageLength <= 0 {
		return errors.New("MAX_MESSAGE_LENGTH must be positive")
	}
	if c.SendBufferSize <= 0 {
		return errors.New("SEND_BUFFER_SIZE must be positive")
	}
	switch c.ArchiveDriver {
	case ArchiveNone:
	case ArchiveRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is not set")
		}
	case ArchivePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_DRIVER %q", c.ArchiveDriver)
	}
	if c.ArchiveDriver != ArchiveNone && c.ArchiveQueueSize <= 0 {
		return errors.New("ARCHIVE_QUEUE_SIZE must be positive")
	}
	return nil
}
