package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/petrzlen/callchain-golang/pkg/providers"
	"github.com/petrzlen/callchain-golang/pkg/transcriber"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Transcriber validates an audio file, preprocesses it and hands it to a transcription capability.
type Transcriber struct {
	cfg        Config
	fs         afero.Fs
	processor  *Processor
	capability transcriber.Transcriber
}

// NewTranscriber binds a Processor and a capability once. With a nil capability a
// Groq whisper client is built from cfg.Credential, failing with ErrConfiguration if it is empty.
func NewTranscriber(cfg Config, capability transcriber.Transcriber, opts ...ProcessorOption) (*Transcriber, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio config: %w", err)
	}
	if capability == nil {
		if cfg.Credential == "" {
			return nil, ErrConfiguration
		}
		capability = transcriber.NewOpenAIWhisper(providers.NewGroqClient(providers.Options{APIKey: cfg.Credential}))
	}
	processor := NewProcessor(cfg, opts...)
	return &Transcriber{
		cfg:        cfg,
		fs:         processor.fs,
		processor:  processor,
		capability: capability,
	}, nil
}

func (t *Transcriber) Config() Config {
	return t.cfg
}

// Transcribe fails with ErrFileNotFound before any decoding when path is not a regular file.
func (t *Transcriber) Transcribe(path string) (string, error) {
	info, err := t.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	encoded, err := t.processor.Preprocess(path)
	if err != nil {
		return "", err
	}

	startTime := time.Now()
	text, err := t.capability.Transcribe(encoded, t.cfg.Model, t.cfg.Language, t.cfg.Temperature)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	log.Info().Str("path", path).Str("model", t.cfg.Model).Int("text_length", len(text)).Dur("time_elapsed", time.Since(startTime)).Msg("audio transcribed")
	return text, nil
}
