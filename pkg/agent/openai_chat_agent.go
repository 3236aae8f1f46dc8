package agent

import (
	"context"
	"fmt"
	"github.com/petrzlen/callchain-golang/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"time"
)

const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGroqModel   = "llama3-8b-8192"
)

type openaiChatAgent struct {
	client   *openai.Client
	provider string
	model    string
}

// NewOpenAIChatAgent generates with OpenAI chat completions, an empty model means DefaultOpenAIModel.
func NewOpenAIChatAgent(client *openai.Client, model string) Generator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openaiChatAgent{client: client, provider: "openai", model: model}
}

// NewGroqChatAgent is the same agent pointed at Groq, the client should come from providers.NewGroqClient.
func NewGroqChatAgent(client *openai.Client, model string) Generator {
	if model == "" {
		model = DefaultGroqModel
	}
	return &openaiChatAgent{client: client, provider: "groq", model: model}
}

func conversationToOpenAiMessages(conversation models.Conversation) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(conversation.Messages))
	for i, message := range conversation.Messages {
		result[i].Role = message.Role
		result[i].Content = message.Content
	}
	return result
}

// Generate sends the prompt as a single user message and returns the first choice.
func (o *openaiChatAgent) Generate(prompt string) (string, error) {
	startTime := time.Now()
	conversation := models.NewConversationSimple(prompt)

	chatRequest := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: conversationToOpenAiMessages(conversation),
	}
	log.Debug().Str("provider", o.provider).Str("model", chatRequest.Model).Int("prompt_length", len(prompt)).Msg("create chat completion request")

	resp, err := o.client.CreateChatCompletion(context.Background(), chatRequest)
	if err != nil {
		return "", fmt.Errorf("cannot generate response from %s: %w", o.provider, err)
	}

	result := ""
	if len(resp.Choices) > 0 {
		result = resp.Choices[0].Message.Content
	}
	log.Debug().Str("provider", o.provider).Dur("time_elapsed", time.Since(startTime)).Int("completion_tokens", resp.Usage.CompletionTokens).Msg("received chat completion")
	return result, nil
}
