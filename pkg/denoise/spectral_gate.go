// Package denoise implements stationary spectral gating.
//
// The noise clip is transformed with a short-time Fourier transform and, for each
// frequency bin, the mean and standard deviation of its level in dB are measured.
// Bins of the signal that do not rise above mean + NStdThresh*std are attenuated.
// The binary mask is smoothed over frequency and time before it is applied, so narrow
// isolated peaks get attenuated along with the noise around them.
package denoise

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

type Options struct {
	FFTSize   int
	HopLength int
	// NStdThresh is how many standard deviations above the noise mean a bin must be to pass.
	NStdThresh float64
	// PropDecrease in [0, 1]: 1 removes gated bins entirely, 0 leaves the signal untouched.
	PropDecrease float64
	// Mask smoothing extents.
	FreqSmoothHz  float64
	TimeSmoothSec float64
}

func DefaultOptions() Options {
	return Options{
		FFTSize:       1024,
		HopLength:     256,
		NStdThresh:    1.5,
		PropDecrease:  1.0,
		FreqSmoothHz:  500,
		TimeSmoothSec: 0.05,
	}
}

const (
	// Bins are clipped to this many dB under their loudest frame.
	dbRange = 80.0
	eps     = 2.220446049250313e-16
)

type SpectralGate struct {
	opts Options
}

func NewSpectralGate(opts Options) (*SpectralGate, error) {
	if opts.FFTSize < 2 || opts.FFTSize%2 != 0 {
		return nil, fmt.Errorf("fft size must be even and >= 2, got %d", opts.FFTSize)
	}
	if opts.HopLength <= 0 || opts.HopLength > opts.FFTSize {
		return nil, fmt.Errorf("hop length must be within (0, %d], got %d", opts.FFTSize, opts.HopLength)
	}
	if opts.PropDecrease < 0 || opts.PropDecrease > 1 {
		return nil, fmt.Errorf("prop decrease must be within [0, 1], got %g", opts.PropDecrease)
	}
	return &SpectralGate{opts: opts}, nil
}

// ReduceNoise returns a new slice of len(samples). noiseClip is usually a prefix of samples.
func (g *SpectralGate) ReduceNoise(samples, noiseClip []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}
	if len(samples) == 0 {
		return []float64{}, nil
	}
	if len(noiseClip) == 0 {
		return nil, fmt.Errorf("noise clip is empty")
	}

	s := newSTFT(g.opts.FFTSize, g.opts.HopLength)

	threshold := g.noiseThreshold(s.forward(noiseClip))

	spectrum := s.forward(samples)
	levels := levelsDB(spectrum)
	mask := make([][]float64, len(spectrum))
	for t := range spectrum {
		mask[t] = make([]float64, len(spectrum[t]))
		for f := range spectrum[t] {
			if levels[t][f] > threshold[f] {
				mask[t][f] = 1
			}
		}
	}

	freqRadius := int(g.opts.FreqSmoothHz / (float64(sampleRate) / float64(g.opts.FFTSize/2)))
	timeRadius := int(g.opts.TimeSmoothSec / (float64(g.opts.HopLength) / float64(sampleRate)))
	mask = smooth(mask, timeRadius, freqRadius)

	for t := range spectrum {
		for f := range spectrum[t] {
			gain := 1 - g.opts.PropDecrease*(1-mask[t][f])
			spectrum[t][f] *= complex(gain, 0)
		}
	}
	return s.inverse(spectrum, len(samples)), nil
}

// noiseThreshold is mean + NStdThresh*std of each bin's level over the noise frames.
func (g *SpectralGate) noiseThreshold(noise [][]complex128) []float64 {
	levels := levelsDB(noise)
	numBins := g.opts.FFTSize/2 + 1
	threshold := make([]float64, numBins)
	column := make([]float64, len(levels))
	for f := 0; f < numBins; f++ {
		for t := range levels {
			column[t] = levels[t][f]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		threshold[f] = mean + g.opts.NStdThresh*std
	}
	return threshold
}

// levelsDB converts magnitudes to dB, clipped per bin at dbRange below that bin's maximum.
func levelsDB(spectrum [][]complex128) [][]float64 {
	if len(spectrum) == 0 {
		return nil
	}
	numBins := len(spectrum[0])
	levels := make([][]float64, len(spectrum))
	binMax := make([]float64, numBins)
	for f := range binMax {
		binMax[f] = math.Inf(-1)
	}
	for t := range spectrum {
		levels[t] = make([]float64, numBins)
		for f, c := range spectrum[t] {
			db := 20 * math.Log10(math.Hypot(real(c), imag(c))+eps)
			levels[t][f] = db
			binMax[f] = math.Max(binMax[f], db)
		}
	}
	for t := range levels {
		for f := range levels[t] {
			levels[t][f] = math.Max(levels[t][f], binMax[f]-dbRange)
		}
	}
	return levels
}

// smooth applies a separable triangular filter. Weights are renormalized at the edges
// so a mask of all ones stays all ones.
func smooth(mask [][]float64, timeRadius, freqRadius int) [][]float64 {
	return smoothAxis(transpose(smoothAxis(transpose(mask), timeRadius)), freqRadius)
}

// smoothAxis filters along the inner index.
func smoothAxis(rows [][]float64, radius int) [][]float64 {
	if radius <= 0 {
		return rows
	}
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		kernel[i] = float64(radius + 1 - abs(i-radius))
	}
	out := make([][]float64, len(rows))
	for r, row := range rows {
		out[r] = make([]float64, len(row))
		for i := range row {
			sum, weight := 0.0, 0.0
			for k := -radius; k <= radius; k++ {
				j := i + k
				if j < 0 || j >= len(row) {
					continue
				}
				w := kernel[k+radius]
				sum += w * row[j]
				weight += w
			}
			out[r][i] = sum / weight
		}
	}
	return out
}

func transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return m
	}
	out := make([][]float64, len(m[0]))
	for i := range out {
		out[i] = make([]float64, len(m))
		for j := range m {
			out[i][j] = m[j][i]
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
