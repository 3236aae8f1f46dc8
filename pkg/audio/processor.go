// Package audio conditions audio files and sends them to a transcription service.
package audio

import (
	"fmt"
	"time"

	"github.com/petrzlen/callchain-golang/pkg/audio_utils"
	"github.com/petrzlen/callchain-golang/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// NoiseReducer removes noise from samples using noiseClip as the noise reference.
// denoise.SpectralGate is the implementation shipped with this module.
type NoiseReducer interface {
	ReduceNoise(samples, noiseClip []float64, sampleRate int) ([]float64, error)
}

type ProcessorOption func(*Processor)

// WithFs reads input files from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) ProcessorOption {
	return func(p *Processor) {
		p.fs = fs
	}
}

// WithNoiseReducer is required when Config.NoiseReduction is set.
func WithNoiseReducer(reducer NoiseReducer) ProcessorOption {
	return func(p *Processor) {
		p.noiseReducer = reducer
	}
}

// Processor turns an audio file into a WAV buffer at the configured sample rate.
// It keeps no state between calls.
type Processor struct {
	cfg          Config
	fs           afero.Fs
	noiseReducer NoiseReducer
}

func NewProcessor(cfg Config, opts ...ProcessorOption) *Processor {
	p := &Processor{
		cfg: cfg,
		fs:  afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Config() Config {
	return p.cfg
}

// Preprocess loads path and runs, in this order: resample, normalize, trim silence,
// noise reduction, WAV encoding. An invalid Config fails before the file is read.
// Normalization changes what the trim threshold cuts, and trimming changes which audio
// the noise profile is taken from, so the order is fixed.
func (p *Processor) Preprocess(path string) (models.EncodedAudio, error) {
	startTime := time.Now()

	if err := p.cfg.Validate(); err != nil {
		return models.EncodedAudio{}, fmt.Errorf("invalid audio config: %w", err)
	}
	waveform, err := p.load(path)
	if err != nil {
		return models.EncodedAudio{}, err
	}
	nativeRate := waveform.SampleRate
	nativeDuration := waveform.Duration()

	samples := resample(waveform.Samples, waveform.SampleRate, p.cfg.TargetSampleRate)
	if p.cfg.Normalize {
		samples = normalize(samples)
	}
	if p.cfg.TrimSilence {
		samples = trimSilence(samples)
	}
	if p.cfg.NoiseReduction {
		if p.noiseReducer == nil {
			return models.EncodedAudio{}, fmt.Errorf("noise reduction requested but no noise reducer configured: %w", ErrCapabilityUnavailable)
		}
		samples, err = p.noiseReducer.ReduceNoise(samples, noiseClip(samples, p.cfg.TargetSampleRate), p.cfg.TargetSampleRate)
		if err != nil {
			return models.EncodedAudio{}, fmt.Errorf("cannot reduce noise: %w", err)
		}
	}

	data, err := audio_utils.EncodeFloatsToWav(samples, p.cfg.TargetSampleRate)
	if err != nil {
		return models.EncodedAudio{}, fmt.Errorf("cannot encode processed audio: %w", err)
	}

	log.Debug().Str("path", path).Int("native_sample_rate", nativeRate).Int("target_sample_rate", p.cfg.TargetSampleRate).Dur("input_duration", nativeDuration).Int("output_samples", len(samples)).Bool("normalize", p.cfg.Normalize).Bool("trim_silence", p.cfg.TrimSilence).Bool("noise_reduction", p.cfg.NoiseReduction).Dur("time_elapsed", time.Since(startTime)).Msg("audio preprocessed")
	return models.EncodedAudio{
		Name:       models.EncodedAudioName,
		Data:       data,
		SampleRate: p.cfg.TargetSampleRate,
	}, nil
}

func (p *Processor) load(path string) (*models.Waveform, error) {
	waveform, err := audio_utils.DecodeFile(p.fs, path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return waveform, nil
}
