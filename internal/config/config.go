package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	StoreDriver string     `env:"STORE_DRIVER" envDefault:"sqlite"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/jaweb.db"`
	RedisURL    string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir      string     `env:"SPA_DIR" envDefault:"../client/dist"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.StoreDriver != "sqlite" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("unknown store driver %q (want sqlite or memory)", cfg.StoreDriver)
	}
	return &cfg, nil
}
