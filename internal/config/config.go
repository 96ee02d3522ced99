package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"adcore/internal/config/configs"
)

// Config aggregates all configuration sections for the application. Fields
// are populated from environment variables using the caarlos0/env library. The
// nested structs are tagged with envPrefix so their fields are parsed with
// the given prefix. See the individual types in the configs package for
// default values and options. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev). It is
	// attached to every log record.
	Env string `env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the HTTP server. Environment variables
	// prefixed with HTTP_ will populate this struct.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger. Environment variables prefixed
	// with LOG_ will populate this struct.
	Log configs.Logger `envPrefix:"LOG_"`

	// Store selects the persistence backend (STORE_DRIVER).
	Store configs.Store `envPrefix:"STORE_"`

	// Psql configures the PostgreSQL connection. Environment variables
	// prefixed with PSQL_ will populate this struct.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Redis configures the optional criteria cache (REDIS_ prefix).
	Redis configs.Redis `envPrefix:"REDIS_"`

	// Payment configures the payment gateway (PAYMENT_ prefix).
	Payment configs.Payment `envPrefix:"PAYMENT_"`
}

// Load reads configuration from environment variables into a Config. Values
// from a .env file in the working directory are applied first but never
// override variables already set in the environment. All fields are loaded
// with their specified defaults when no environment variable is provided.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return cfg, err
	}
	if !cfg.Payment.Sandbox && cfg.Payment.BaseURL == "" {
		return cfg, errors.New("PAYMENT_BASE_URL is required unless PAYMENT_SANDBOX is set")
	}
	return cfg, nil
}
