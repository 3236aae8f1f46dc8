package models

import (
	"bytes"
	"github.com/rs/zerolog/log"
	"io"
	"math"
	"time"
)

// EncodedAudioName is what transcription endpoints see as the upload file name,
// they infer the content type from the extension alone.
const EncodedAudioName = "audio.wav"

type Trace struct {
	CreatedAt time.Time
	Creator   string

	ProcessedAt time.Time
	Processor   string
}

func NewTrace(creator string) Trace {
	return Trace{
		CreatedAt: time.Now(),
		Creator:   creator,
	}
}

// Done marks the trace as processed by processor and logs it.
func (t *Trace) Done(processor string) {
	t.ProcessedAt = time.Now()
	t.Processor = processor
	t.Log()
}

func (t Trace) Log() {
	log.Debug().Time("created_at", t.CreatedAt).Str("creator", t.Creator).Time("processed_at", t.ProcessedAt).Str("processor", t.Processor).Dur("dur_to_process", t.ProcessedAt.Sub(t.CreatedAt)).Msgf("tracing")
}

// Waveform is decoded mono audio, samples are roughly in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Peak returns max(abs(sample)), 0 for an empty waveform.
func (w *Waveform) Peak() float64 {
	peak := 0.0
	for _, s := range w.Samples {
		peak = math.Max(peak, math.Abs(s))
	}
	return peak
}

// EncodedAudio is a WAV file held in memory, ready to be uploaded.
type EncodedAudio struct {
	Name       string
	Data       []byte
	SampleRate int
}

func (e EncodedAudio) Reader() io.Reader {
	return bytes.NewReader(e.Data)
}

type Message struct {
	Role    string
	Content string
}

// Conversation for the Chat API
type Conversation struct {
	Messages []Message
}

func NewConversationSimple(text string) Conversation {
	return Conversation{
		Messages: []Message{
			{Role: "user", Content: text},
		},
	}
}
