package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateParser(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Downloads.Backend == "" {
		return errors.New("downloads.backend must be set")
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.Iterations < 1 {
		return errors.New("scanner.iterations must be at least 1")
	}
	if c.Scanner.FetchTimeoutSeconds < 1 {
		return errors.New("scanner.fetch_timeout_seconds must be at least 1")
	}
	if c.Scanner.RequestsPerSecond <= 0 {
		return errors.New("scanner.requests_per_second must be positive")
	}
	if c.Scanner.CacheTTLSeconds < 0 {
		return errors.New("scanner.cache_ttl_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateParser() error {
	if c.Parser.CacheTTLSeconds < 0 {
		return errors.New("parser.cache_ttl_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
