package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port        string        `env:"PORT" env-default:"8080"`
	Env         string        `env:"APP_ENV" env-default:"production"`
	DBDriver    string        `env:"DB_DRIVER" env-default:"sqlite"`
	DBDSN       string        `env:"DB_DSN" env-default:"marketview.db"`
	SnapshotDir string        `env:"SNAPSHOT_DIR" env-default:"./data"`
	LogFile     string        `env:"LOG_FILE"`
	RateLimit   int           `env:"RATE_LIMIT" env-default:"60"`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" env-default:"5s"`
}

// Development reports whether error bodies may carry internal detail.
func (c Config) Development() bool { return c.Env == "development" }

// Load reads the environment. Unparsable values fall back to the defaults.
func Load() Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Printf("[config] %v; using defaults", err)
		cfg = Defaults()
	}
	log.Printf("[config] PORT=%s APP_ENV=%s DB_DRIVER=%s DB_DSN=%s SNAPSHOT_DIR=%s LOG_FILE=%s RATE_LIMIT=%d READ_TIMEOUT=%s",
		cfg.Port, cfg.Env, cfg.DBDriver, cfg.DBDSN, cfg.SnapshotDir, cfg.LogFile, cfg.RateLimit, cfg.ReadTimeout)
	return cfg
}

// Defaults is the configuration with every variable unset.
func Defaults() Config {
	return Config{
		Port:        "8080",
		Env:         "production",
		DBDriver:    "sqlite",
		DBDSN:       "marketview.db",
		SnapshotDir: "./data",
		RateLimit:   60,
		ReadTimeout: 5 * time.Second,
	}
}
