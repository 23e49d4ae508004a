package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Roller: RollerConfig{
			MaxRepeat: 5000,
			Source:    "crypto",
		},
		Scripting: ScriptingConfig{
			InstructionLimit: 100000,
		},
		Console: ConsoleConfig{
			Prompt: "roll> ",
			Color:  true,
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
roller:
  max_repeat: 20
  source: seeded
  seed: 42
scripting:
  dir: /srv/dice/lua
  instruction_limit: 500
macros:
  path: /srv/dice/macros.yaml
console:
  prompt: "> "
  color: false
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Roller.MaxRepeat)
	assert.Equal(t, "seeded", cfg.Roller.Source)
	assert.Equal(t, uint64(42), cfg.Roller.Seed)
	assert.Equal(t, "/srv/dice/lua", cfg.Scripting.Dir)
	assert.Equal(t, 500, cfg.Scripting.InstructionLimit)
	assert.Equal(t, "/srv/dice/macros.yaml", cfg.Macros.Path)
	assert.Equal(t, "> ", cfg.Console.Prompt)
	assert.False(t, cfg.Console.Color)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 5000, cfg.Roller.MaxRepeat)
	assert.Equal(t, "crypto", cfg.Roller.Source)
	assert.Equal(t, "roll> ", cfg.Console.Prompt)
	assert.True(t, cfg.Console.Color)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DICE_ROLLER_MAX_REPEAT", "12")
	t.Setenv("DICE_LOGGING_LEVEL", "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Roller.MaxRepeat)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roller:\n  source: dev-urandom\n"), 0644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roller.source")
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("roller.max_repeat", 7)
	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Roller.MaxRepeat)
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateRollerSource(t *testing.T) {
	for _, src := range []string{"crypto", "seeded"} {
		cfg := validConfig()
		cfg.Roller.Source = src
		assert.NoError(t, cfg.Validate(), "source %q should be valid", src)
	}
	cfg := validConfig()
	cfg.Roller.Source = "math"
	assert.Error(t, cfg.Validate())
}

func TestValidateInstructionLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Scripting.InstructionLimit = 0
	assert.NoError(t, cfg.Validate())
	cfg.Scripting.InstructionLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateReportsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "loud"
	cfg.Roller.MaxRepeat = 0
	cfg.Roller.Source = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "roller.max_repeat")
	assert.Contains(t, err.Error(), "roller.source")
}

// Property-based tests

func TestPropertyValidMaxRepeat(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, maxRepeatCeiling).Draw(t, "max_repeat")
		cfg := validConfig()
		cfg.Roller.MaxRepeat = n
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid max_repeat %d rejected: %v", n, err)
		}
	})
}

func TestPropertyInvalidMaxRepeat(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.OneOf(
			rapid.IntRange(-1000, 0),
			rapid.IntRange(maxRepeatCeiling+1, maxRepeatCeiling*2),
		).Draw(t, "max_repeat")
		cfg := validConfig()
		cfg.Roller.MaxRepeat = n
		if err := cfg.Validate(); err == nil {
			t.Fatalf("invalid max_repeat %d accepted", n)
		}
	})
}
