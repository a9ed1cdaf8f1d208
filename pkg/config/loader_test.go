package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/prepdeck/pkg/config"
)

type serviceConfig struct {
	Port    int           `env:"PORT" envDefault:"8080"`
	Name    string        `env:"SERVICE_NAME,required"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Tags    []string      `env:"TAGS" envSeparator:","`
}

type checkedConfig struct {
	Min int `env:"MIN" envDefault:"1"`
	Max int `env:"MAX" envDefault:"10"`
}

func (c *checkedConfig) Validate() error {
	if c.Min > c.Max {
		return errors.New("min exceeds max")
	}
	return nil
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("defaults and values", func(t *testing.T) {
		t.Parallel()
		var cfg serviceConfig
		require.NoError(t, config.Parse(&cfg, map[string]string{
			"SERVICE_NAME": "api",
			"TAGS":         "a,b",
		}))
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "api", cfg.Name)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		var cfg serviceConfig
		require.ErrorIs(t, config.Parse(&cfg, nil), config.ErrParsingConfig)
	})

	t.Run("bad value", func(t *testing.T) {
		t.Parallel()
		var cfg serviceConfig
		err := config.Parse(&cfg, map[string]string{"SERVICE_NAME": "api", "PORT": "eighty"})
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("validator", func(t *testing.T) {
		t.Parallel()
		var cfg checkedConfig
		require.NoError(t, config.Parse(&cfg, nil))

		err := config.Parse(&cfg, map[string]string{"MIN": "20"})
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, config.Parse[serviceConfig](nil, nil), config.ErrNilPointer)
	})
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from-file\nPORT=9090\n"), 0o600))

	t.Setenv("PORT", "7070")
	t.Cleanup(func() { os.Unsetenv("SERVICE_NAME") })

	var cfg serviceConfig
	require.NoError(t, config.Load(&cfg, path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 7070, cfg.Port, "process environment wins over the file")
}

func TestMustLoadPanics(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	os.Unsetenv("SERVICE_NAME")

	var cfg serviceConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
