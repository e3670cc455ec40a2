package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrMissingCredentials = errors.New("AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET are required")

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	ClientID        string `env:"AMADEUS_CLIENT_ID"`
	ClientSecret    string `env:"AMADEUS_CLIENT_SECRET"`
	BaseURL         string `env:"AMADEUS_BASE_URL" envDefault:"https://test.api.amadeus.com"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"USD"`

	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	SearchTimeout    time.Duration `env:"SEARCH_TIMEOUT" envDefault:"45s"`
	RetryMax         int           `env:"SEARCH_RETRY_MAX" envDefault:"2"`
	AirlineBatchSize int           `env:"AIRLINE_BATCH_SIZE" envDefault:"20"`
	ProviderRPS      float64       `env:"PROVIDER_RPS" envDefault:"10"`
	ProviderBurst    int           `env:"PROVIDER_BURST" envDefault:"10"`
	PricingRPS       float64       `env:"PRICING_RPS" envDefault:"2"`
	PricingBurst     int           `env:"PRICING_BURST" envDefault:"2"`

	CacheEnabled  bool          `env:"CACHE_ENABLED" envDefault:"false"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisTTL      time.Duration `env:"REDIS_TTL" envDefault:"5m"`
}

// Load reads an optional .env file from the working directory and then parses
// the process environment. Variables already set in the environment win over
// the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.BaseURL == "" {
		return errors.New("AMADEUS_BASE_URL must not be empty")
	}
	if c.AirlineBatchSize <= 0 {
		return fmt.Errorf("AIRLINE_BATCH_SIZE must be positive, got %d", c.AirlineBatchSize)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("SEARCH_RETRY_MAX must not be negative, got %d", c.RetryMax)
	}
	return nil
}
