package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/kasboek/internal/repository"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Empty uses the embedded default table.
	CategoryRulesPath string `env:"CATEGORY_RULES_PATH"`

	RecomputeChannel       string `env:"RECOMPUTE_CHANNEL" envDefault:"kasboek_start_balance_changed"`
	ListenerMinReconnectMS int    `env:"LISTENER_MIN_RECONNECT_MS" envDefault:"1000"`
	ListenerMaxReconnectMS int    `env:"LISTENER_MAX_RECONNECT_MS" envDefault:"60000"`
	ListenerPingIntervalS  int    `env:"LISTENER_PING_INTERVAL_S" envDefault:"90"`

	IdempotencyTTLH int `env:"IDEMPOTENCY_TTL_H" envDefault:"24"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.ListenerMinReconnectMS <= 0 || cfg.ListenerMaxReconnectMS < cfg.ListenerMinReconnectMS {
		return nil, fmt.Errorf("config.Load: invalid listener reconnect window %d..%dms", cfg.ListenerMinReconnectMS, cfg.ListenerMaxReconnectMS)
	}
	if cfg.ListenerPingIntervalS <= 0 {
		return nil, fmt.Errorf("config.Load: LISTENER_PING_INTERVAL_S must be positive, got %d", cfg.ListenerPingIntervalS)
	}
	if cfg.IdempotencyTTLH <= 0 {
		return nil, fmt.Errorf("config.Load: IDEMPOTENCY_TTL_H must be positive, got %d", cfg.IdempotencyTTLH)
	}
	return &cfg, nil
}

func (c *Config) ListenerMinReconnect() time.Duration {
	return time.Duration(c.ListenerMinReconnectMS) * time.Millisecond
}

func (c *Config) ListenerMaxReconnect() time.Duration {
	return time.Duration(c.ListenerMaxReconnectMS) * time.Millisecond
}

func (c *Config) ListenerPingInterval() time.Duration {
	return time.Duration(c.ListenerPingIntervalS) * time.Second
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLH) * time.Hour
}

func (c *Config) Pool() repository.PoolConfig {
	return repository.PoolConfig{
		MaxOpenConns:     c.DBMaxOpenConns,
		MaxIdleConns:     c.DBMaxIdleConns,
		ConnMaxLifetimeS: c.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: c.DBConnMaxIdleTimeS,
		ConnectAttempts:  c.DBConnectAttempts,
	}
}
