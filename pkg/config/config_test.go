package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Empty(t, cfg.ServerURL)
	require.Equal(t, 20, cfg.PollTimeoutSeconds)
	require.Equal(t, 3, cfg.RetryDelaySeconds)
	require.Equal(t, "info", cfg.LogLevel)

	cfg.ServerURL = DefaultServerURL
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatecrash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server-url: https://gate.example.com\npoll-timeout-seconds: 10\nplain: true\n",
	), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://gate.example.com", cfg.ServerURL)
	require.Equal(t, 10, cfg.PollTimeoutSeconds)
	require.True(t, cfg.Plain)
	require.Equal(t, 3, cfg.RetryDelaySeconds)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatecrash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server-url: https://file.example.com\n"), 0o644))
	t.Setenv("GATECRASH_SERVER_URL", "https://env.example.com")
	t.Setenv("GATECRASH_RETRY_DELAY_SECONDS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.ServerURL)
	require.Equal(t, 5, cfg.RetryDelaySeconds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_PollTimeoutRange(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = DefaultServerURL

	cfg.PollTimeoutSeconds = 31
	require.ErrorContains(t, cfg.Validate(), "poll timeout")

	cfg.PollTimeoutSeconds = -1
	require.ErrorContains(t, cfg.Validate(), "poll timeout")

	cfg.PollTimeoutSeconds = 0
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsEmptyServer(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = ""
	require.ErrorContains(t, cfg.Validate(), "server url is required")
}

func TestValidate_RetryDelayMinimum(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = DefaultServerURL
	cfg.RetryDelaySeconds = 0
	require.ErrorContains(t, cfg.Validate(), "retry delay")
}

func TestDurations(t *testing.T) {
	cfg := Default()
	require.Equal(t, 20*time.Second, cfg.PollTimeout())
	require.Equal(t, 3*time.Second, cfg.RetryDelay())
}
