package audio

import (
	"math"
	"math/rand/v2"
)

// WithNoise returns a copy of w with white Gaussian noise added.
// amplitude is the noise standard deviation relative to full scale, so 0.003
// adds noise about 50 dB below a full-scale signal. Results are clipped.
func WithNoise(w *Waveform, amplitude float64, rng *rand.Rand) *Waveform {
	full := w.MaxAmplitude()
	hi := full - 1
	out := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		v := float64(s) + amplitude*full*rng.NormFloat64()
		out[i] = int(math.Round(math.Max(-full, math.Min(hi, v))))
	}
	return &Waveform{
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
		BitDepth:   w.BitDepth,
		Samples:    out,
	}
}
