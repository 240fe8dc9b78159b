// Package config loads the process configuration for the voice ordering
// client. Values come from a YAML file with environment variable overrides
// for secrets; the session core itself never reads globals, everything is
// passed at construction.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend selects which session adapter a conversation uses.
type Backend string

const (
	BackendRealtime  Backend = "realtime"
	BackendSegmented Backend = "segmented"
)

// Config is the complete client configuration.
type Config struct {
	Backend   Backend         `yaml:"backend"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Segmented SegmentedConfig `yaml:"segmented"`
	Audio     AudioConfig     `yaml:"audio"`
	Order     OrderConfig     `yaml:"order"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// RealtimeConfig points at the realtime middle tier.
type RealtimeConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AuthToken string `yaml:"auth_token"`
}

// SegmentedConfig carries the credentials for the pipelined backend legs.
type SegmentedConfig struct {
	DeepgramAPIKey string `yaml:"deepgram_api_key"`
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	Model          string `yaml:"model"`
	Voice          string `yaml:"voice"`
}

// AudioConfig selects the device layer and capture parameters.
type AudioConfig struct {
	Device     string `yaml:"device"` // miniaudio | portaudio
	SampleRate int    `yaml:"sample_rate"`
}

// OrderConfig carries order derivation parameters.
type OrderConfig struct {
	TaxRate float64 `yaml:"tax_rate"`
}

// AssistantConfig overrides the assistant persona.
type AssistantConfig struct {
	Instructions  string `yaml:"instructions"`
	Transcription *bool  `yaml:"transcription"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: BackendRealtime,
		Audio: AudioConfig{
			Device:     "miniaudio",
			SampleRate: 24000,
		},
		Order: OrderConfig{TaxRate: 0.08},
		Segmented: SegmentedConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// Load reads and parses the configuration file, layering it over the
// defaults and applying environment overrides.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// applyEnv layers environment variables over file values. Secrets are
// expected here rather than in files.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("VOICECORE_BACKEND"); ok {
		c.Backend = Backend(v)
	}
	if v, ok := os.LookupEnv("VOICECORE_ENDPOINT"); ok {
		c.Realtime.Endpoint = v
	}
	if v, ok := os.LookupEnv("VOICECORE_AUTH_TOKEN"); ok {
		c.Realtime.AuthToken = v
	}
	if v, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
		c.Segmented.DeepgramAPIKey = v
	}
	if v, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		c.Segmented.OpenAIAPIKey = v
	}
}

// Validate checks cross-field consistency for the selected backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRealtime:
		if c.Realtime.Endpoint == "" {
			return fmt.Errorf("realtime backend requires an endpoint")
		}
	case BackendSegmented:
		if c.Segmented.DeepgramAPIKey == "" {
			return fmt.Errorf("segmented backend requires a deepgram api key")
		}
		if c.Segmented.OpenAIAPIKey == "" {
			return fmt.Errorf("segmented backend requires an openai api key")
		}
		if c.Segmented.Model == "" {
			return fmt.Errorf("segmented backend requires a model")
		}
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendRealtime, BackendSegmented, c.Backend)
	}

	switch c.Audio.Device {
	case "miniaudio", "portaudio", "none":
	default:
		return fmt.Errorf("audio device must be miniaudio, portaudio or none, got %q", c.Audio.Device)
	}

	switch c.Audio.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return fmt.Errorf("unsupported sample rate %d", c.Audio.SampleRate)
	}

	if c.Order.TaxRate < 0 || c.Order.TaxRate >= 1 {
		return fmt.Errorf("tax_rate must be in [0, 1), got %f", c.Order.TaxRate)
	}

	return nil
}
