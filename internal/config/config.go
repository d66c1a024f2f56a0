package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL   string        `env:"DATABASE_URL,required"`
	Port          string        `env:"PORT" envDefault:"8080"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	QuoteAPIURL   string        `env:"QUOTE_API_URL" envDefault:"https://cloud.iexapis.com/stable"`
	QuoteAPIKey   string        `env:"QUOTE_API_KEY,required"`
	QuoteCacheTTL time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"30s"`
	StartingCash  string        `env:"STARTING_CASH" envDefault:"10000.00"`
	KafkaBrokers  []string      `env:"KAFKA_BROKERS" envSeparator:","`
	CORSOrigin    string        `env:"CORS_ORIGIN" envDefault:"*"`
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if _, err := decimal.NewFromString(cfg.StartingCash); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StartingCashAmount returns the starting balance as a decimal. Load
// has already validated the string.
func (c Config) StartingCashAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(c.StartingCash)
	return d
}
