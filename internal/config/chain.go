// Package config loads chain definitions for the callchain command.
package config

import (
	"fmt"
	"os"

	"github.com/petrzlen/callchain-golang/pkg/agent"
	"github.com/petrzlen/callchain-golang/pkg/chain"
	"github.com/petrzlen/callchain-golang/pkg/prompt"
	"github.com/petrzlen/callchain-golang/pkg/providers"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// StepConfig is one chain step. An empty model picks the provider default.
type StepConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Template string `yaml:"template"`
}

// ChainFile is the YAML layout of a chain definition.
type ChainFile struct {
	Vars  map[string]string `yaml:"vars"`
	Steps []StepConfig      `yaml:"steps"`
}

// LoadChainFile reads and validates a chain definition. A step without provider uses openai.
func LoadChainFile(path string) (*ChainFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chain file: %w", err)
	}

	var cf ChainFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing chain file: %w", err)
	}
	for i := range cf.Steps {
		if cf.Steps[i].Provider == "" {
			cf.Steps[i].Provider = ProviderOpenAI
		}
	}
	if err := cf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain file %s: %w", path, err)
	}
	return &cf, nil
}

func (c *ChainFile) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("steps must not be empty")
	}
	for i, step := range c.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d].name must not be empty", i)
		}
		switch step.Provider {
		case ProviderOpenAI, ProviderGroq:
		default:
			return fmt.Errorf("steps[%d].provider must be %q or %q, got %q", i, ProviderOpenAI, ProviderGroq, step.Provider)
		}
		if _, err := prompt.StringTemplate(step.Template).Variables(); err != nil {
			return fmt.Errorf("steps[%d].template: %w", i, err)
		}
	}
	return nil
}

// MergeVars returns the file vars overridden by overrides.
func (c *ChainFile) MergeVars(overrides map[string]string) map[string]string {
	vars := make(map[string]string, len(c.Vars)+len(overrides))
	for k, v := range c.Vars {
		vars[k] = v
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars
}

// GeneratorFactory creates the generator backing a step.
type GeneratorFactory func(step StepConfig) (agent.Generator, error)

// Build turns the definition into a runnable chain.
func (c *ChainFile) Build(newGenerator GeneratorFactory) (*chain.Chain, error) {
	ch := chain.New()
	for _, step := range c.Steps {
		generator, err := newGenerator(step)
		if err != nil {
			return nil, fmt.Errorf("cannot create generator for step %q: %w", step.Name, err)
		}
		ch.Step(step.Name, generator, prompt.StringTemplate(step.Template))
	}
	return ch, nil
}

// ProviderGenerators builds go-openai backed generators, reading API keys through lookup.
// Generators are reused per provider and model.
func ProviderGenerators(lookup func(string) string) GeneratorFactory {
	generators := map[string]agent.Generator{}
	return func(step StepConfig) (agent.Generator, error) {
		cacheKey := step.Provider + "/" + step.Model
		if generator, ok := generators[cacheKey]; ok {
			return generator, nil
		}

		var generator agent.Generator
		switch step.Provider {
		case ProviderOpenAI:
			apiKey := lookup(providers.OpenAIAPIKeyEnvVar)
			if apiKey == "" {
				return nil, fmt.Errorf("%s is not set", providers.OpenAIAPIKeyEnvVar)
			}
			generator = agent.NewOpenAIChatAgent(providers.NewOpenAIClient(providers.Options{APIKey: apiKey}), step.Model)
		case ProviderGroq:
			apiKey := lookup(providers.GroqAPIKeyEnvVar)
			if apiKey == "" {
				return nil, fmt.Errorf("%s is not set", providers.GroqAPIKeyEnvVar)
			}
			generator = agent.NewGroqChatAgent(providers.NewGroqClient(providers.Options{APIKey: apiKey}), step.Model)
		default:
			return nil, fmt.Errorf("unknown provider %q", step.Provider)
		}
		generators[cacheKey] = generator
		return generator, nil
	}
}
