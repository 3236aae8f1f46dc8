// Package providers builds go-openai clients for the OpenAI-compatible services we talk to.
package providers

import (
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	OpenAIAPIKeyEnvVar = "OPENAI_API_KEY"
	GroqAPIKeyEnvVar   = "GROQ_API_KEY"

	GroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultTimeout bounds a single request, there is no other deadline in the call path.
	DefaultTimeout = 2 * time.Minute
)

type Options struct {
	APIKey string
	// BaseURL overrides the provider endpoint, mostly for tests and proxies.
	BaseURL string
	Timeout time.Duration
}

func NewOpenAIClient(opts Options) *openai.Client {
	return newClient(opts, "")
}

// NewGroqClient talks to Groq through its OpenAI-compatible API.
func NewGroqClient(opts Options) *openai.Client {
	return newClient(opts, GroqBaseURL)
}

func newClient(opts Options, defaultBaseURL string) *openai.Client {
	config := openai.DefaultConfig(opts.APIKey)
	if defaultBaseURL != "" {
		config.BaseURL = defaultBaseURL
	}
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	config.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(config)
}
