// Package convert downmixes WAV files to mono at a fixed sample rate,
// mirroring the input directory layout in the output directory.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maauso/speechprep/internal/audio"
	"github.com/maauso/speechprep/internal/media"
)

// DefaultSampleRate is the sample rate of converted files.
const DefaultSampleRate = 16000

// ErrOutsideRoot is returned when an input is not below the input root.
var ErrOutsideRoot = errors.New("input is outside the input root")

// Resampler converts an audio file to PCM WAV with a given layout.
type Resampler interface {
	ToPCM(ctx context.Context, src, dst string, format media.PCMFormat) error
}

// MonoConverter writes a mono copy of each input under the output root.
type MonoConverter struct {
	resampler Resampler
	format    media.PCMFormat
	logger    *slog.Logger
}

// NewMonoConverter creates a MonoConverter producing 16-bit mono files at
// sampleRate. A non-positive sampleRate selects DefaultSampleRate.
func NewMonoConverter(resampler Resampler, sampleRate int, logger *slog.Logger) *MonoConverter {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MonoConverter{
		resampler: resampler,
		format:    media.PCMFormat{SampleRate: sampleRate, Channels: 1},
		logger:    logger,
	}
}

// SampleRate returns the output sample rate.
func (c *MonoConverter) SampleRate() int {
	return c.format.SampleRate
}

// Convert writes the mono version of inputPath to the same relative location
// under outputRoot and returns the output path.
func (c *MonoConverter) Convert(ctx context.Context, inputRoot, outputRoot, inputPath string) (string, error) {
	rel, err := filepath.Rel(inputRoot, inputPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, inputPath)
	}
	if _, err := audio.FormatFromPath(inputPath); err != nil {
		return "", err
	}

	outputPath := filepath.Join(outputRoot, rel)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	if err := c.resampler.ToPCM(ctx, inputPath, outputPath, c.format); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("convert %s: %w", inputPath, err)
		}
		return "", fmt.Errorf("%w: %s: %w", audio.ErrTranscodeFailed, inputPath, err)
	}

	c.logger.Info("converted to mono",
		slog.String("input", inputPath),
		slog.String("output", outputPath),
		slog.Int("sample_rate", c.format.SampleRate),
	)
	return outputPath, nil
}
