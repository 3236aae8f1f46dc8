package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.Equal(t, "whisper-large-v3-turbo", cfg.Model)
	require.Equal(t, "en", cfg.Language)
	require.Equal(t, 16000, cfg.TargetSampleRate)
	require.True(t, cfg.Normalize)
	require.True(t, cfg.TrimSilence)
	require.False(t, cfg.NoiseReduction)
	require.Empty(t, cfg.Credential)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: whisper-large-v3\nnoise_reduction: true\ntemperature: 0.3\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "whisper-large-v3", cfg.Model)
	require.True(t, cfg.NoiseReduction)
	require.Equal(t, float32(0.3), cfg.Temperature)
	require.Equal(t, "en", cfg.Language)
	require.Equal(t, 16000, cfg.TargetSampleRate)
	require.True(t, cfg.TrimSilence)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unterminated\n"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestWithCredentialFallback(t *testing.T) {
	t.Parallel()

	lookup := func(key string) string {
		if key == "GROQ_API_KEY" {
			return "from-env"
		}
		return ""
	}

	cfg := DefaultConfig().WithCredentialFallback(lookup)
	require.Equal(t, "from-env", cfg.Credential)

	explicit := DefaultConfig()
	explicit.Credential = "explicit"
	require.Equal(t, "explicit", explicit.WithCredentialFallback(lookup).Credential)

	require.Empty(t, DefaultConfig().WithCredentialFallback(func(string) string { return "" }).Credential)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*Config){
		"empty model":    func(c *Config) { c.Model = "" },
		"zero rate":      func(c *Config) { c.TargetSampleRate = 0 },
		"negative temp":  func(c *Config) { c.Temperature = -0.1 },
		"temp above one": func(c *Config) { c.Temperature = 1.5 },
	}
	for name, mutate := range tests {
		cfg := DefaultConfig()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), name)
	}
}
