// Package augment writes time-stretched, pitch-shifted and noisy variants of
// short speech clips next to the originals.
package augment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/speechprep/internal/audio"
	"github.com/maauso/speechprep/internal/media"
)

// Variant suffixes appended to the clip base name.
const (
	SuffixStretched = "_stretched"
	SuffixPitched   = "_pitched"
	SuffixNoisy     = "_noisy"
)

// Effects applies the ffmpeg-backed transformations.
type Effects interface {
	TimeStretch(ctx context.Context, src, dst string, rate float64, channels int) error
	PitchShift(ctx context.Context, src, dst string, format media.PCMFormat, semitones float64) error
}

// Options controls the strength of each augmentation.
type Options struct {
	StretchRate    float64
	PitchSemitones float64
	NoiseAmplitude float64
	// Seed seeds the noise generator. Zero uses the current time.
	Seed uint64
	// Mono writes single-channel variants. When false the variants keep
	// the channel count of the clip.
	Mono bool
}

// DefaultOptions returns the standard augmentation strengths.
func DefaultOptions() Options {
	return Options{
		StretchRate:    1.2,
		PitchSemitones: 1.5,
		NoiseAmplitude: 0.003,
		Mono:           true,
	}
}

// Augmenter produces the three variants of a clip.
type Augmenter struct {
	effects Effects
	opts    Options
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewAugmenter creates an Augmenter.
func NewAugmenter(effects Effects, opts Options, logger *slog.Logger) *Augmenter {
	if logger == nil {
		logger = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) // #nosec G115 - any bit pattern is a valid seed
	}
	return &Augmenter{
		effects: effects,
		opts:    opts,
		rng:     rand.New(rand.NewPCG(seed, seed)), // #nosec G404 - noise, not security
		logger:  logger,
	}
}

// AugmentFile writes the stretched, pitched and noisy variants of path into
// its directory and returns their paths in that order.
func (a *Augmenter) AugmentFile(ctx context.Context, path string) ([]string, error) {
	if _, err := audio.FormatFromPath(path); err != nil {
		return nil, err
	}

	wave, err := audio.ReadWAVFile(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	base := audio.BaseName(path)
	stretched := filepath.Join(dir, base+SuffixStretched+".wav")
	pitched := filepath.Join(dir, base+SuffixPitched+".wav")
	noisy := filepath.Join(dir, base+SuffixNoisy+".wav")

	channels := 0
	if a.opts.Mono {
		channels = 1
		wave = wave.Mono()
	}

	var written []string
	cleanup := func() {
		for _, p := range written {
			_ = os.Remove(p)
		}
	}

	if err := a.effects.TimeStretch(ctx, path, stretched, a.opts.StretchRate, channels); err != nil {
		return nil, effectError(ctx, "time stretch", path, err)
	}
	written = append(written, stretched)

	if err := a.effects.PitchShift(ctx, path, pitched, media.PCMFormat{SampleRate: wave.SampleRate, Channels: channels}, a.opts.PitchSemitones); err != nil {
		cleanup()
		return nil, effectError(ctx, "pitch shift", path, err)
	}
	written = append(written, pitched)

	if err := audio.WriteWAVFile(noisy, audio.WithNoise(wave, a.opts.NoiseAmplitude, a.rng)); err != nil {
		cleanup()
		return nil, fmt.Errorf("write noisy variant: %w", err)
	}
	written = append(written, noisy)

	a.logger.Info("augmented clip",
		slog.String("input", path),
		slog.Float64("stretch_rate", a.opts.StretchRate),
		slog.Float64("pitch_semitones", a.opts.PitchSemitones),
		slog.Bool("mono", a.opts.Mono),
	)
	return written, nil
}

func effectError(ctx context.Context, effect, path string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s: %w", effect, path, err)
	}
	return fmt.Errorf("%w: %s %s: %w", audio.ErrTranscodeFailed, effect, path, err)
}

// IsVariant reports whether name is an already generated variant.
func IsVariant(name string) bool {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(base, SuffixStretched) ||
		strings.HasSuffix(base, SuffixPitched) ||
		strings.HasSuffix(base, SuffixNoisy)
}
