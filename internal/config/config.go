package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Pool    PoolConfig    `mapstructure:"pool"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`   // json or text
	Output     string `mapstructure:"output"`   // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// ServerConfig configures the local status/diagnostics HTTP surface.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DebugEndpoints  bool          `mapstructure:"debug_endpoints"`
}

// FilterConfig holds the duplicate-run detection thresholds.
type FilterConfig struct {
	// MinDupCount is the run length a frame's duplicates must reach
	// before that frame is kept.
	MinDupCount int `mapstructure:"min_dup_count"`
	// Hi is the block difference above which a single block alone
	// proves the frame changed.
	Hi int `mapstructure:"hi"`
	// Lo is the block difference above which a block counts toward the
	// changed fraction.
	Lo int `mapstructure:"lo"`
	// Frac is the fraction of sampled blocks allowed above Lo before a
	// plane counts as changed.
	Frac float64 `mapstructure:"frac"`
}

// PoolConfig configures the frame buffer pool.
type PoolConfig struct {
	MaxTotal     int64 `mapstructure:"max_total"`      // Total frame memory budget in bytes
	FreeListSize int   `mapstructure:"free_list_size"` // Buffers kept for reuse
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variable override
	v.SetEnvPrefix("STILLKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)

	// Status server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.debug_endpoints", false)

	// Filter defaults, matching the classic decimation thresholds
	v.SetDefault("filter.min_dup_count", 10)
	v.SetDefault("filter.hi", 64*12)
	v.SetDefault("filter.lo", 64*5)
	v.SetDefault("filter.frac", 0.33)

	// Pool defaults
	v.SetDefault("pool.max_total", 256*1024*1024) // 256MB
	v.SetDefault("pool.free_list_size", 8)
}
