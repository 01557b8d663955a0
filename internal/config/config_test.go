package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLoadSaveRoundTrip verifies that settings survive a save/load cycle with
// defaults applied.
func TestLoadSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		EngineAddress:    "127.0.0.1:7420",
		CompanionAddress: "127.0.0.1:7421",
		RedisAddress:     "127.0.0.1:6379",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.EngineAddress, loaded.EngineAddress)
	require.Equal(t, cfg.CompanionAddress, loaded.CompanionAddress)
	require.Equal(t, DefaultTimeout, loaded.Timeout)
	require.Equal(t, DefaultDatabaseFilename, loaded.DatabasePath)
	require.Equal(t, DefaultGracePeriod, loaded.Handshake.GracePeriod)
	require.Equal(t, DefaultPostAckFallback, loaded.Handshake.PostAckFallback)
}

// TestLoadMissingFile verifies that a missing settings file surfaces an error.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestValidate covers required fields and the handshake timer ordering rule.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(&Config{}))
	require.Error(t, Validate(&Config{EngineAddress: "not a socket"}))

	// Post-ack fallback must stay below the grace period.
	bad := &Config{
		EngineAddress: "127.0.0.1:7420",
		Handshake: Handshake{
			GracePeriod:     10 * time.Second,
			PostAckFallback: 10 * time.Second,
		},
	}
	require.Error(t, Validate(bad))

	good := &Config{EngineAddress: "127.0.0.1:7420"}
	require.NoError(t, Validate(good))
	require.True(t, good.Handshake.PostAckFallback < good.Handshake.GracePeriod)
}
