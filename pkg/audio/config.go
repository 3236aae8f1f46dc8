package audio

import (
	"fmt"
	"os"

	"github.com/petrzlen/callchain-golang/pkg/providers"
	"gopkg.in/yaml.v3"
)

// CredentialEnvVar is where WithCredentialFallback looks for a missing credential.
const CredentialEnvVar = providers.GroqAPIKeyEnvVar

const (
	DefaultModel            = "whisper-large-v3-turbo"
	DefaultLanguage         = "en"
	DefaultTargetSampleRate = 16000
)

// Config holds preprocessing and transcription options. It is passed by value
// and never modified by the Processor or Transcriber.
type Config struct {
	Credential  string  `yaml:"credential"`
	Model       string  `yaml:"model"`
	Language    string  `yaml:"language"`
	Temperature float32 `yaml:"temperature"`

	TargetSampleRate int  `yaml:"target_sample_rate"`
	Normalize        bool `yaml:"normalize"`
	TrimSilence      bool `yaml:"trim_silence"`
	NoiseReduction   bool `yaml:"noise_reduction"`
}

func DefaultConfig() Config {
	return Config{
		Model:            DefaultModel,
		Language:         DefaultLanguage,
		Temperature:      0.0,
		TargetSampleRate: DefaultTargetSampleRate,
		Normalize:        true,
		TrimSilence:      true,
		NoiseReduction:   false,
	}
}

// LoadConfig reads a YAML file, fields missing from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading audio config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing audio config: %w", err)
	}
	return cfg, nil
}

// WithCredentialFallback fills an empty Credential from CredentialEnvVar using lookup,
// typically os.Getenv. A credential that is still empty is not an error here.
func (c Config) WithCredentialFallback(lookup func(string) string) Config {
	if c.Credential == "" && lookup != nil {
		c.Credential = lookup(CredentialEnvVar)
	}
	return c
}

func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("target_sample_rate must be > 0, got %d", c.TargetSampleRate)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be within [0, 1], got %g", c.Temperature)
	}
	return nil
}
