// Package config provides Viper-based configuration loading for the dice roller.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RollerConfig controls how expressions are parsed and where randomness comes from.
type RollerConfig struct {
	// MaxRepeat is the largest accepted "^" repetition count.
	MaxRepeat int `mapstructure:"max_repeat"`
	// Source is the randomness provider: "crypto" or "seeded".
	Source string `mapstructure:"source"`
	// Seed initializes the "seeded" source.
	Seed uint64 `mapstructure:"seed"`
}

// ScriptingConfig holds Lua interpreter settings.
type ScriptingConfig struct {
	// Dir is the directory of *.lua interpretation scripts. Empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps the VM instructions one call may execute. 0 uses the
	// scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// MacrosConfig locates the macro definitions file.
type MacrosConfig struct {
	// Path is a YAML file or a directory of YAML files. Empty disables macros.
	Path string `mapstructure:"path"`
}

// ConsoleConfig holds interactive console settings.
type ConsoleConfig struct {
	Prompt string `mapstructure:"prompt"`
	// Color enables ANSI coloring of results.
	Color bool `mapstructure:"color"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Roller    RollerConfig    `mapstructure:"roller"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Macros    MacrosConfig    `mapstructure:"macros"`
	Console   ConsoleConfig   `mapstructure:"console"`
}

// maxRepeatCeiling is the largest accepted roller.max_repeat.
const maxRepeatCeiling = 100000

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRoller(c.Roller); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateRoller(r RollerConfig) error {
	var errs []string
	if r.MaxRepeat < 1 || r.MaxRepeat > maxRepeatCeiling {
		errs = append(errs, fmt.Sprintf("roller.max_repeat must be 1-%d, got %d", maxRepeatCeiling, r.MaxRepeat))
	}
	validSources := map[string]bool{"crypto": true, "seeded": true}
	if !validSources[r.Source] {
		errs = append(errs, fmt.Sprintf("roller.source must be one of [crypto, seeded], got %q", r.Source))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Precondition: path must be empty or a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DICE_ prefix
	v.SetEnvPrefix("DICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("roller.max_repeat", 5000)
	v.SetDefault("roller.source", "crypto")
	v.SetDefault("roller.seed", 0)

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("macros.path", "")

	v.SetDefault("console.prompt", "roll> ")
	v.SetDefault("console.color", true)
}
