package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter config: %w", err)
	}

	if err := c.Pool.Validate(); err != nil {
		return fmt.Errorf("pool config: %w", err)
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("invalid log format: %s", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("log output is required")
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", m.Port)
	}

	if m.Path == "" {
		return fmt.Errorf("metrics path is required")
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	return nil
}

func (f *FilterConfig) Validate() error {
	if f.MinDupCount < 0 {
		return fmt.Errorf("min_dup_count cannot be negative: %d", f.MinDupCount)
	}

	if f.Frac < 0 || f.Frac > 1 {
		return fmt.Errorf("frac must be in [0,1]: %f", f.Frac)
	}

	return nil
}

func (p *PoolConfig) Validate() error {
	if p.MaxTotal <= 0 {
		return fmt.Errorf("max_total must be positive")
	}

	if p.FreeListSize < 0 {
		return fmt.Errorf("free_list_size cannot be negative")
	}

	return nil
}
