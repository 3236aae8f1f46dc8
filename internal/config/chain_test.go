package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petrzlen/callchain-golang/pkg/agent"
	"github.com/stretchr/testify/require"
)

func writeChainFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const introChain = `
vars:
  name: Bob
steps:
  - name: intro
    template: "Introduce {name}"
  - name: echo
    provider: groq
    model: llama3-70b-8192
    template: "Repeat: {intro}"
`

func TestLoadChainFile(t *testing.T) {
	t.Parallel()

	cf, err := LoadChainFile(writeChainFile(t, introChain))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "Bob"}, cf.Vars)
	require.Equal(t, []StepConfig{
		{Name: "intro", Provider: ProviderOpenAI, Template: "Introduce {name}"},
		{Name: "echo", Provider: ProviderGroq, Model: "llama3-70b-8192", Template: "Repeat: {intro}"},
	}, cf.Steps)
}

func TestLoadChainFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadChainFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	tests := map[string]string{
		"no steps":         "vars:\n  a: b\n",
		"unnamed step":     "steps:\n  - template: hi\n",
		"unknown provider": "steps:\n  - name: a\n    provider: mistral\n    template: hi\n",
		"bad template":     "steps:\n  - name: a\n    template: \"{unclosed\"\n",
		"not yaml":         "steps: [\n",
	}
	for name, content := range tests {
		_, err := LoadChainFile(writeChainFile(t, content))
		require.Error(t, err, name)
	}
}

func TestMergeVars(t *testing.T) {
	t.Parallel()

	cf := &ChainFile{Vars: map[string]string{"name": "Bob", "tone": "dry"}}
	merged := cf.MergeVars(map[string]string{"name": "Alice"})
	require.Equal(t, map[string]string{"name": "Alice", "tone": "dry"}, merged)
	require.Equal(t, "Bob", cf.Vars["name"])
}

func TestBuildRunsStepsWithFactory(t *testing.T) {
	t.Parallel()

	cf, err := LoadChainFile(writeChainFile(t, introChain))
	require.NoError(t, err)

	var providers []string
	ch, err := cf.Build(func(step StepConfig) (agent.Generator, error) {
		providers = append(providers, step.Provider)
		return agent.GeneratorFunc(func(p string) (string, error) {
			return strings.ToUpper(p), nil
		}), nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{ProviderOpenAI, ProviderGroq}, providers)
	require.Equal(t, 2, ch.Len())

	results, err := ch.Run(cf.MergeVars(map[string]string{"name": "Alice"}))
	require.NoError(t, err)
	require.Equal(t, []string{"intro", "echo"}, results.Names())
	echo, ok := results.Get("echo")
	require.True(t, ok)
	require.Equal(t, "REPEAT: INTRODUCE ALICE", echo)
}

func TestBuildFactoryError(t *testing.T) {
	t.Parallel()

	cf, err := LoadChainFile(writeChainFile(t, introChain))
	require.NoError(t, err)

	boom := errors.New("no key")
	_, err = cf.Build(func(StepConfig) (agent.Generator, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), `"intro"`)
}

func TestProviderGenerators(t *testing.T) {
	t.Parallel()

	env := map[string]string{"GROQ_API_KEY": "gsk-test"}
	factory := ProviderGenerators(func(key string) string { return env[key] })

	first, err := factory(StepConfig{Name: "a", Provider: ProviderGroq})
	require.NoError(t, err)
	second, err := factory(StepConfig{Name: "b", Provider: ProviderGroq})
	require.NoError(t, err)
	require.Same(t, first, second)

	_, err = factory(StepConfig{Name: "c", Provider: ProviderOpenAI})
	require.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = factory(StepConfig{Name: "d", Provider: "mistral"})
	require.Error(t, err)
}
