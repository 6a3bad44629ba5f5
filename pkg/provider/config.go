package provider

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaseURL = "http://20.244.56.144/test"
	DefaultTimeout = 500 * time.Millisecond
)

// Config holds the provider endpoint settings.
type Config struct {
	// Categories are resolved below this URL.
	BaseURL string `env:"PROVIDER_BASE_URL" envDefault:"http://20.244.56.144/test"`
	// Upper bound for a single fetch.
	Timeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"500ms"`
}

// LoadConfig loads provider configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse provider config: %w", err)
	}
	return cfg, nil
}
