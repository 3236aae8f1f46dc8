package denoise

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// stft is a centered short-time Fourier transform with a periodic Hann window.
type stft struct {
	size   int
	hop    int
	window []float64
	fft    *fourier.FFT
}

func newSTFT(size, hop int) *stft {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return &stft{size: size, hop: hop, window: window, fft: fourier.NewFFT(size)}
}

// forward pads size/2 zeros on both ends so frame t is centered on sample t*hop.
func (s *stft) forward(samples []float64) [][]complex128 {
	pad := s.size / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)

	numFrames := 1 + (len(padded)-s.size)/s.hop
	frames := make([][]complex128, numFrames)
	buf := make([]float64, s.size)
	for t := range frames {
		offset := t * s.hop
		for i := range buf {
			buf[i] = padded[offset+i] * s.window[i]
		}
		frames[t] = s.fft.Coefficients(nil, buf)
	}
	return frames
}

// inverse overlap-adds the windowed frames and divides by the summed squared window.
func (s *stft) inverse(frames [][]complex128, length int) []float64 {
	pad := s.size / 2
	total := (len(frames)-1)*s.hop + s.size
	out := make([]float64, total)
	norm := make([]float64, total)
	buf := make([]float64, s.size)
	// gonum transforms are unnormalized, a round trip scales by size.
	scale := 1 / float64(s.size)
	for t, frame := range frames {
		s.fft.Sequence(buf, frame)
		offset := t * s.hop
		for i, v := range buf {
			out[offset+i] += v * scale * s.window[i]
			norm[offset+i] += s.window[i] * s.window[i]
		}
	}
	for i := range out {
		if norm[i] > 1e-10 {
			out[i] /= norm[i]
		}
	}

	result := make([]float64, length)
	end := pad + length
	if end > total {
		end = total
	}
	if pad < end {
		copy(result, out[pad:end])
	}
	return result
}
