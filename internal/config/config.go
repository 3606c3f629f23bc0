// Package config provides the configuration structure for the voice-bridge
// service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied when the configuration omits a value. The bridge serves
// on all interfaces on port 5000 unless told otherwise.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 5000
	DefaultModel          = "microsoft/VibeVoice-Realtime-0.5B"
	DefaultVoice          = "Carter"
	DefaultLoader         = LoaderRunner
	DefaultRunnerBinary   = "chatllm"
	DefaultTimeoutSeconds = 300
)

// Loader selector values for TTSConfig.Loader.
const (
	LoaderRunner = "runner"
	LoaderRemote = "remote"
)

// HTTPConfig holds the listen address for the HTTP surface.
type HTTPConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TTSConfig holds the model and loader configuration.
type TTSConfig struct {
	Model          string `toml:"model"`
	DefaultVoice   string `toml:"default_voice"`
	Loader         string `toml:"loader"`
	RunnerBinary   string `toml:"runner_binary"`
	ServiceURL     string `toml:"service_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NATSConfig holds the optional NATS ingress configuration. The ingress is
// enabled only when URL is set.
type NATSConfig struct {
	URL               string `toml:"url"`
	SynthesizeSubject string `toml:"synthesize_subject"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	HTTP  HTTPConfig  `toml:"http"`
	TTS   TTSConfig   `toml:"tts"`
	NATS  NATSConfig  `toml:"nats"`
	Paths PathsConfig `toml:"paths"`
}

// Load loads the configuration for the voice-bridge service and fills in
// defaults for omitted values, so an empty configuration still serves.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.Normalize()

	return &cfg, nil
}

// Normalize applies defaults to any unset field.
func (c *Config) Normalize() {
	if c.HTTP.Host == "" {
		c.HTTP.Host = DefaultHost
	}

	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultPort
	}

	if c.TTS.Model == "" {
		c.TTS.Model = DefaultModel
	}

	if c.TTS.DefaultVoice == "" {
		c.TTS.DefaultVoice = DefaultVoice
	}

	if c.TTS.Loader == "" {
		c.TTS.Loader = DefaultLoader
	}

	if c.TTS.RunnerBinary == "" {
		c.TTS.RunnerBinary = DefaultRunnerBinary
	}

	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// ListenAddr returns the HTTP listen address in host:port form.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
