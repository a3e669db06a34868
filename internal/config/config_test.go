package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Applies defaults for missing keys", func(t *testing.T) {
		// Given: a config file with only the port set
		path := writeConfig(t, "http-port: \"9999\"\n")

		// When: the config is loaded
		conf, err := Load(path)

		// Then: defaults fill the rest
		require.NoError(t, err)
		assert.Equal(t, "9999", conf.HTTPPort)
		assert.Equal(t, StorageMemory, conf.Storage)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, 30*time.Minute, conf.Session.IdleTimeout)
		assert.Equal(t, 2*time.Minute, conf.Session.ResultGrace)
		assert.Equal(t, 1000, conf.Session.MaxRegisterAttempts)
		assert.False(t, conf.Session.StrictMoves)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Reads nested session settings", func(t *testing.T) {
		// Given: a config file with session settings
		path := writeConfig(t, "storage: redis\nsession:\n  strict-moves: true\n  idle-timeout: 5m\n")

		// When: the config is loaded
		conf, err := Load(path)

		// Then: the values are taken from the file
		require.NoError(t, err)
		assert.Equal(t, StorageRedis, conf.Storage)
		assert.True(t, conf.Session.StrictMoves)
		assert.Equal(t, 5*time.Minute, conf.Session.IdleTimeout)
	})

	t.Run("Rejects unknown storage", func(t *testing.T) {
		// Given: a config file with an unsupported storage
		path := writeConfig(t, "storage: postgres\n")

		// When: the config is loaded
		_, err := Load(path)

		// Then: an error is returned
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage")
	})

	t.Run("Rejects non-positive session settings", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
		}{
			{name: "Zero sweep interval", key: "SESSION_SWEEP_INTERVAL", value: "0s"},
			{name: "Negative sweep interval", key: "SESSION_SWEEP_INTERVAL", value: "-1m"},
			{name: "Zero idle timeout", key: "SESSION_IDLE_TIMEOUT", value: "0s"},
			{name: "Zero result grace", key: "SESSION_RESULT_GRACE", value: "0s"},
			{name: "Zero register attempts", key: "SESSION_MAX_REGISTER_ATTEMPTS", value: "0"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Given: a valid file with an unusable session override
				path := writeConfig(t, "storage: memory\n")
				t.Setenv(tt.key, tt.value)

				// When: the config is loaded
				_, err := Load(path)

				// Then: the load fails
				require.Error(t, err)
				assert.Contains(t, err.Error(), "must be positive")
			})
		}
	})

	t.Run("Rejects negative durations in the file", func(t *testing.T) {
		// Given: a config file with a negative idle timeout
		path := writeConfig(t, "session:\n  idle-timeout: -5m\n")

		// When: the config is loaded
		_, err := Load(path)

		// Then: the setting is named in the error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idle-timeout")
	})

	t.Run("Fails on missing file", func(t *testing.T) {
		// When: loading a path that does not exist
		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		// Then: an error is returned
		require.Error(t, err)
	})
}
