// Package config loads runtime settings with precedence: config file, then
// PRESENZ_* environment variables, then defaults. Settings are read once at
// startup; there is no hot reload.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root settings object handed to the application wiring.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Session    SessionConfig    `mapstructure:"session"`
	Security   SecurityConfig   `mapstructure:"security"`
	Export     ExportConfig     `mapstructure:"export"`
	KillSwitch KillSwitchConfig `mapstructure:"killswitch"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	BasePath string        `mapstructure:"base_path"`
	WALMode  bool          `mapstructure:"wal_mode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	IDLength   int `mapstructure:"id_length"`
	CodeLength int `mapstructure:"code_length"`
}

type SecurityConfig struct {
	MaxNameLength int `mapstructure:"max_name_length"`
	MaxRollLength int `mapstructure:"max_roll_length"`
}

type ExportConfig struct {
	BackupPath string `mapstructure:"backup_path"`
	Format     string `mapstructure:"format"`
}

type KillSwitchConfig struct {
	InactivityEnabled bool          `mapstructure:"inactivity_enabled"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
}

// Load reads configuration from the given file path (optional) plus
// environment and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("database.base_path", "./data")
	v.SetDefault("database.wal_mode", true)
	v.SetDefault("database.timeout", 30*time.Second)
	v.SetDefault("session.id_length", 16)
	v.SetDefault("session.code_length", 6)
	v.SetDefault("security.max_name_length", 100)
	v.SetDefault("security.max_roll_length", 30)
	v.SetDefault("export.backup_path", "./backups")
	v.SetDefault("export.format", "json")
	v.SetDefault("killswitch.inactivity_enabled", false)
	v.SetDefault("killswitch.inactivity_timeout", 3*time.Minute)

	v.SetEnvPrefix("PRESENZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Database.BasePath == "" {
		return fmt.Errorf("database base path cannot be empty")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}
	if c.Session.IDLength <= 0 || c.Session.CodeLength <= 0 {
		return fmt.Errorf("session token lengths must be positive")
	}
	if c.Security.MaxNameLength <= 0 || c.Security.MaxRollLength <= 0 {
		return fmt.Errorf("security length limits must be positive")
	}
	if c.Export.BackupPath == "" {
		return fmt.Errorf("export backup path cannot be empty")
	}
	if c.Export.Format != "json" && c.Export.Format != "xlsx" {
		return fmt.Errorf("export format must be json or xlsx, got %q", c.Export.Format)
	}
	if c.KillSwitch.InactivityEnabled && c.KillSwitch.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity timeout must be positive when the monitor is enabled")
	}
	return nil
}
