package transcriber

import (
	"context"
	"fmt"
	"github.com/petrzlen/callchain-golang/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"strings"
	"time"
)

type openAIWhisper struct {
	client *openai.Client
}

// NewOpenAIWhisper works with any OpenAI-compatible transcription endpoint, Groq included.
func NewOpenAIWhisper(client *openai.Client) Transcriber {
	return &openAIWhisper{
		client: client,
	}
}

func (o *openAIWhisper) Transcribe(audio models.EncodedAudio, model string, language string, temperature float32) (result string, err error) {
	startTime := time.Now()
	fileName := audio.Name
	if fileName == "" {
		fileName = models.EncodedAudioName
	}
	req := openai.AudioRequest{
		Model:  model,
		Reader: audio.Reader(),
		// Only the extension matters, the endpoint uses it to pick a decoder.
		FilePath:    fileName,
		Language:    language,
		Temperature: temperature,
		Format:      openai.AudioResponseFormatJSON,
	}

	log.Debug().Str("model", req.Model).Str("language", language).Float32("temperature", temperature).Int("byte_size", len(audio.Data)).Msg("create transcription request")
	resp, err := o.client.CreateTranscription(context.Background(), req)
	if err != nil {
		err = fmt.Errorf("cannot create transcription %w", err)
		return
	}

	result = strings.TrimSpace(resp.Text)
	log.Debug().Str("transcription", result).Dur("time_elapsed", time.Since(startTime)).Msg("received transcription")
	return
}
