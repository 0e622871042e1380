// Package config assembles runtime settings for the client. Values layer in
// order: built-in defaults, then an optional YAML file, then GATECRASH_*
// environment variables. Command-line flags are applied on top by the
// command itself.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultServerURL is offered by the interactive prompt when no server is
// configured through a file, the environment, or flags.
const DefaultServerURL = "http://localhost:8000"

type Config struct {
	// ServerURL is the base URL of the gatekeeper service.
	ServerURL string `yaml:"server-url" env:"SERVER_URL"`

	// PollTimeoutSeconds is the long-poll hold requested from the server.
	// The server clamps it to [0, 30].
	PollTimeoutSeconds int `yaml:"poll-timeout-seconds" env:"POLL_TIMEOUT_SECONDS"`

	// RetryDelaySeconds is the pause between failed polls.
	RetryDelaySeconds int `yaml:"retry-delay-seconds" env:"RETRY_DELAY_SECONDS"`

	LogLevel string `yaml:"log-level" env:"LOG_LEVEL"`

	// LogFile redirects logs away from the terminal. Required if logging is
	// wanted in full-screen mode, where stderr would corrupt the display.
	LogFile string `yaml:"log-file" env:"LOG_FILE"`

	// Transcript, when set, appends the conversation to a Markdown file.
	Transcript string `yaml:"transcript" env:"TRANSCRIPT"`

	// Plain forces line mode instead of the full-screen UI.
	Plain bool `yaml:"plain" env:"PLAIN"`
}

func Default() Config {
	return Config{
		PollTimeoutSeconds: 20,
		RetryDelaySeconds:  3,
		LogLevel:           "info",
	}
}

// Load returns the layered configuration. path may be empty, in which case
// only defaults and environment variables apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "GATECRASH_"}); err != nil {
		return cfg, errors.Wrap(err, "parse environment")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server url is required")
	}
	if c.PollTimeoutSeconds < 0 || c.PollTimeoutSeconds > 30 {
		return errors.Errorf("poll timeout must be between 0 and 30 seconds, got %d", c.PollTimeoutSeconds)
	}
	if c.RetryDelaySeconds < 1 {
		return errors.Errorf("retry delay must be at least 1 second, got %d", c.RetryDelaySeconds)
	}
	return nil
}

func (c Config) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}
