package config

import (
	"fmt"
	"os"

	"github.com/kerrybros/fullbay-api-ingestion-sub000/internal/logger"
)

type Config struct {
	// Database Configuration
	DatabaseURL string

	// Fullbay API Configuration
	FullbayBaseURL string

	// Shop Configuration
	Shops []Shop

	// Logging Configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

func Load() (*Config, error) {
	config := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		FullbayBaseURL: getEnv("FULLBAY_BASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogOutput:      getEnv("LOG_OUTPUT", "stdout"),
	}

	shops, err := loadShops(getEnv("SHOPS_FILE", ""))
	if err != nil {
		return nil, fmt.Errorf("loading shop configuration: %w", err)
	}
	config.Shops = shops

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.Shops) == 0 {
		return fmt.Errorf("no shops configured: set FULLBAY_API_KEY_<SHOP_ID> or SHOPS_FILE")
	}
	return nil
}

// Shop returns the configured shop with the given id.
func (c *Config) Shop(shopID string) (*Shop, error) {
	for i := range c.Shops {
		if c.Shops[i].ID == shopID {
			return &c.Shops[i], nil
		}
	}
	return nil, fmt.Errorf("shop %q is not configured", shopID)
}

// GetLoggerConfig returns a logger configuration from the main config.
func (c *Config) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
