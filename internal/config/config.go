// Package config resolves the spice-transfers configuration from flags,
// SPICE_TRANSFERS_ environment variables and the config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-transfers/internal/common"
)

// Config keys.
const (
	KeyDatabasePath      = "database.path"
	KeyMaxDateDifference = "transfers.max_date_difference_days"
	KeyAmountTolerance   = "transfers.amount_tolerance"
	KeyWindowDays        = "transfers.window_days"
	KeyUser              = "transfers.user"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
)

// Config is the resolved application configuration.
type Config struct {
	DatabasePath      string
	User              string
	LogLevel          string
	LogFormat         string
	AmountTolerance   decimal.Decimal
	MaxDateDifference int
	WindowDays        int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyMaxDateDifference, 3)
	v.SetDefault(KeyAmountTolerance, "0")
	v.SetDefault(KeyWindowDays, 30)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load reads the configuration from v.
// It follows this precedence:
// 1. Viper (flags, SPICE_TRANSFERS_ env vars, config file)
// 2. $USER for the reviewing user
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	tolerance, err := decimal.NewFromString(strings.TrimSpace(v.GetString(KeyAmountTolerance)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", common.ErrInvalidConfig, KeyAmountTolerance, v.GetString(KeyAmountTolerance), err)
	}

	cfg := &Config{
		DatabasePath:      ExpandPath(v.GetString(KeyDatabasePath)),
		User:              strings.TrimSpace(v.GetString(KeyUser)),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		AmountTolerance:   tolerance,
		MaxDateDifference: v.GetInt(KeyMaxDateDifference),
		WindowDays:        v.GetInt(KeyWindowDays),
	}

	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}
	if cfg.User == "" {
		cfg.User = "default"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot use.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if c.MaxDateDifference < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %d", common.ErrInvalidConfig, KeyMaxDateDifference, c.MaxDateDifference)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyWindowDays, c.WindowDays)
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative, got %s", common.ErrInvalidConfig, KeyAmountTolerance, c.AmountTolerance)
	}
	switch c.LogFormat {
	case "console", "text", "json":
	default:
		return fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, c.LogFormat)
	}
	return nil
}
