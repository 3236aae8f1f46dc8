package audio

import "math"

const (
	// Taps on each side of the interpolation point, measured at the output bandwidth.
	resampleHalfTaps = 32
	// Keeps the transition band below the new Nyquist frequency.
	resampleRolloff = 0.945

	trimTopDB       = 20.0
	trimFrameLength = 2048
	trimHopLength   = 512
	powerFloor      = 1e-10

	noiseClipSeconds = 0.5
)

// resample converts samples between rates with a Blackman-windowed sinc interpolator.
// The output has ceil(len * toRate / fromRate) samples.
func resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(toRate) / float64(fromRate)
	outLen := int((int64(len(samples))*int64(toRate) + int64(fromRate) - 1) / int64(fromRate))
	cutoff := math.Min(1, ratio) * resampleRolloff
	halfWidth := resampleHalfTaps / cutoff

	out := make([]float64, outLen)
	for j := range out {
		center := float64(j) / ratio
		lo := int(math.Ceil(center - halfWidth))
		if lo < 0 {
			lo = 0
		}
		hi := int(math.Floor(center + halfWidth))
		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}
		sum := 0.0
		for k := lo; k <= hi; k++ {
			x := center - float64(k)
			sum += samples[k] * cutoff * sinc(cutoff*x) * blackman(x/halfWidth)
		}
		out[j] = sum
	}
	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// blackman is the window on u in [-1, 1], zero outside.
func blackman(u float64) float64 {
	if u < -1 || u > 1 {
		return 0
	}
	return 0.42 + 0.5*math.Cos(math.Pi*u) + 0.08*math.Cos(2*math.Pi*u)
}

// normalize scales to a peak of exactly 1. Silence is returned as is.
func normalize(samples []float64) []float64 {
	peak := 0.0
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(s))
	}
	if peak == 0 {
		return samples
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

// trimSilence drops leading and trailing frames whose RMS power is more than trimTopDB
// below the loudest frame. Frames are centered on multiples of the hop and zero padded.
func trimSilence(samples []float64) []float64 {
	if len(samples) == 0 {
		return samples
	}
	power := framePower(samples, trimFrameLength, trimHopLength)

	ref := 0.0
	for _, p := range power {
		ref = math.Max(ref, p)
	}
	refDB := 10 * math.Log10(math.Max(powerFloor, ref))

	first, last := -1, -1
	for t, p := range power {
		if 10*math.Log10(math.Max(powerFloor, p))-refDB > -trimTopDB {
			if first < 0 {
				first = t
			}
			last = t
		}
	}
	if first < 0 {
		return samples[:0]
	}

	start := first * trimHopLength
	end := (last + 1) * trimHopLength
	if end > len(samples) {
		end = len(samples)
	}
	return samples[start:end]
}

// framePower returns mean squared amplitude per frame.
func framePower(samples []float64, frameLength, hopLength int) []float64 {
	numFrames := 1 + len(samples)/hopLength
	power := make([]float64, numFrames)
	for t := range power {
		start := t*hopLength - frameLength/2
		sum := 0.0
		for i := max(start, 0); i < min(start+frameLength, len(samples)); i++ {
			sum += samples[i] * samples[i]
		}
		power[t] = sum / float64(frameLength)
	}
	return power
}

// noiseClip is the region the noise profile is estimated from.
func noiseClip(samples []float64, sampleRate int) []float64 {
	n := int(noiseClipSeconds * float64(sampleRate))
	if len(samples) > n {
		return samples[:n]
	}
	return samples
}
