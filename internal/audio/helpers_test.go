package audio

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// part is a run of either a loud tone or digital silence.
type part struct {
	ms   int
	loud bool
}

func loud(ms int) part   { return part{ms: ms, loud: true} }
func silent(ms int) part { return part{ms: ms} }

// synth builds a 16-bit waveform from parts. Loud parts are a 440 Hz sine at
// half of full scale, about -9 dBFS RMS.
func synth(rate, channels int, parts ...part) *Waveform {
	var samples []int
	frame := 0
	for _, p := range parts {
		n := p.ms * rate / 1000
		for i := 0; i < n; i++ {
			v := 0
			if p.loud {
				v = int(math.Round(16384 * math.Sin(2*math.Pi*440*float64(frame)/float64(rate))))
			}
			for c := 0; c < channels; c++ {
				samples = append(samples, v)
			}
			frame++
		}
	}
	return &Waveform{SampleRate: rate, Channels: channels, BitDepth: 16, Samples: samples}
}

// writeFixture writes w as a WAV file named name in dir and returns its path.
func writeFixture(t *testing.T, dir, name string, w *Waveform) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, WriteWAVFile(path, w))
	return path
}

// assertNear fails when got is further than tol from want.
func assertNear(t *testing.T, want, got, tol int, msg string) {
	t.Helper()
	if got < want-tol || got > want+tol {
		t.Errorf("%s: expected %d±%d, got %d", msg, want, tol, got)
	}
}
