package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	SupabaseURL       string `env:"SUPABASE_URL,required"`
	SupabaseAnonKey   string `env:"SUPABASE_URL_ANON_KEY,required"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	// View analytics are disabled when MongoDBURI is empty.
	MongoDBURI      string `env:"MONGODB_URI"`
	MongoDBPassword string `env:"MONGODB_PASSWORD"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	ParticipationRateLimit float64 `env:"PARTICIPATION_RATE_LIMIT" envDefault:"2"`
	ParticipationRateBurst int     `env:"PARTICIPATION_RATE_BURST" envDefault:"5"`
}

func LoadConfig() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.ParticipationRateLimit <= 0 {
		return nil, fmt.Errorf("PARTICIPATION_RATE_LIMIT must be positive")
	}
	if cfg.ParticipationRateBurst < 1 {
		return nil, fmt.Errorf("PARTICIPATION_RATE_BURST must be at least 1")
	}

	return &cfg, nil
}

// LoadDatabaseConfig reads only what the migrate and seed commands need.
func LoadDatabaseConfig() (*Config, error) {
	var cfg struct {
		DatabaseURL string `env:"DATABASE_URL,required"`
		DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
		Environment string `env:"ENVIRONMENT" envDefault:"development"`
		LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &Config{
		DatabaseURL: cfg.DatabaseURL,
		DBMaxConns:  cfg.DBMaxConns,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
