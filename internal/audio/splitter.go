// Package audio provides waveform decoding, silence detection and the
// silence-based segmenter used to cut long recordings into short clips.
package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Static errors for segmentation.
var (
	// ErrUnsupportedFormat is returned for inputs whose extension is not a supported container.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrTranscodeFailed is returned when the external transcoder exits with an error.
	ErrTranscodeFailed = errors.New("transcode failed")
	// ErrDecodeFailed is returned when audio data cannot be decoded.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrInvalidSplitOpts is returned when SplitOpts fail validation.
	ErrInvalidSplitOpts = errors.New("invalid split options")
)

// SplitOpts configures the behavior of silence-based segmentation.
type SplitOpts struct {
	// MinSilenceMs is the minimum silence duration in milliseconds
	// that separates two segments.
	// Default: 300 milliseconds.
	MinSilenceMs int `validate:"gt=0"`

	// SilenceThreshDB is the level in dBFS at or below which
	// audio is considered silence.
	// Default: -30 dBFS.
	SilenceThreshDB float64 `validate:"lt=0"`

	// KeepSilenceMs is how much of the detected silence is kept on
	// each side of a segment so word boundaries are not clipped.
	// Default: 300 milliseconds.
	KeepSilenceMs int `validate:"gte=0"`

	// PaddingMs is the duration of synthetic silence added before and
	// after every written segment.
	// Default: 500 milliseconds.
	PaddingMs int `validate:"gte=0"`

	// MaxSegments caps the number of segments written per input.
	// Segments past the cap are dropped without error.
	// Default: 20.
	MaxSegments int `validate:"gt=0"`

	// SeekStepMs is the stride between silence measurements.
	// Default: 1 millisecond.
	SeekStepMs int `validate:"gt=0"`
}

// DefaultSplitOpts returns the default options for segmentation.
func DefaultSplitOpts() SplitOpts {
	return SplitOpts{
		MinSilenceMs:    300,
		SilenceThreshDB: -30,
		KeepSilenceMs:   300,
		PaddingMs:       500,
		MaxSegments:     20,
		SeekStepMs:      1,
	}
}

var validate = validator.New()

// Validate checks the option ranges.
func (o SplitOpts) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s must satisfy %s=%s", ErrInvalidSplitOpts, verrs[0].Field(), verrs[0].Tag(), verrs[0].Param())
		}
		return fmt.Errorf("%w: %w", ErrInvalidSplitOpts, err)
	}
	return nil
}

// Splitter defines the interface for splitting audio files at silence boundaries.
type Splitter interface {
	// Split cuts inputPath into silence-bounded segments and writes each one,
	// padded, to outputDir as {base}{ordinal}.wav with ordinals starting at 1.
	//
	// Returns the written paths in ordinal order.
	Split(ctx context.Context, inputPath, outputDir string, opts SplitOpts) ([]string, error)
}
