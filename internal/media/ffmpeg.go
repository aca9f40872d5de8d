package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Static errors for media operations.
var (
	// ErrInvalidFormat is returned when a PCM target has a non-positive rate or channel count.
	ErrInvalidFormat = errors.New("invalid pcm format: sample rate and channels must be positive")
	// ErrInvalidRate is returned when a tempo factor is not positive.
	ErrInvalidRate = errors.New("invalid rate: must be positive")
	// ErrInvalidSampleRate is returned when a sample rate is not positive.
	ErrInvalidSampleRate = errors.New("invalid sample rate: must be positive")
)

// atempo accepts factors in [0.5, 100]; smaller factors need chained stages.
const (
	atempoMin = 0.5
	atempoMax = 100.0
)

// FFmpegTranscoder implements Transcoder using the ffmpeg CLI.
type FFmpegTranscoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath}
}

// ToPCM converts src to 16-bit little-endian PCM WAV.
func (t *FFmpegTranscoder) ToPCM(ctx context.Context, src, dst string, format PCMFormat) error {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return fmt.Errorf("%w: rate=%d, channels=%d", ErrInvalidFormat, format.SampleRate, format.Channels)
	}

	args := []string{
		"-y",      // Overwrite output file without asking
		"-i", src, // Input file
		"-acodec", "pcm_s16le", // 16-bit PCM
		"-ar", strconv.Itoa(format.SampleRate), // Sample rate
		"-ac", strconv.Itoa(format.Channels), // Channel count
		dst, // Output file
	}
	return t.runFFmpeg(ctx, args)
}

// TimeStretch changes tempo by rate without changing pitch.
// channels sets the output channel count; zero keeps the source layout.
func (t *FFmpegTranscoder) TimeStretch(ctx context.Context, src, dst string, rate float64, channels int) error {
	if rate <= 0 {
		return fmt.Errorf("%w: got %.3f", ErrInvalidRate, rate)
	}

	args := []string{
		"-y",
		"-i", src,
		"-af", atempoChain(rate),
	}
	args = append(args, channelArgs(channels)...)
	args = append(args, "-acodec", "pcm_s16le", dst)
	return t.runFFmpeg(ctx, args)
}

// PitchShift raises or lowers pitch by semitones without changing duration.
// The signal is relabelled at a scaled sample rate, resampled back to
// format.SampleRate, and its tempo corrected by the inverse factor.
// A zero format.Channels keeps the source layout.
func (t *FFmpegTranscoder) PitchShift(ctx context.Context, src, dst string, format PCMFormat, semitones float64) error {
	sampleRate := format.SampleRate
	if sampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sampleRate)
	}

	factor := math.Exp2(semitones / 12)
	filter := fmt.Sprintf("asetrate=%d,aresample=%d,%s",
		int(math.Round(float64(sampleRate)*factor)),
		sampleRate,
		atempoChain(1/factor),
	)

	args := []string{
		"-y",
		"-i", src,
		"-af", filter,
	}
	args = append(args, channelArgs(format.Channels)...)
	args = append(args, "-acodec", "pcm_s16le", dst)
	return t.runFFmpeg(ctx, args)
}

func channelArgs(channels int) []string {
	if channels <= 0 {
		return nil
	}
	return []string{"-ac", strconv.Itoa(channels)}
}

// atempoChain builds an atempo filter chain whose product is rate.
func atempoChain(rate float64) string {
	var stages []string
	for rate < atempoMin {
		stages = append(stages, "atempo="+formatFactor(atempoMin))
		rate /= atempoMin
	}
	for rate > atempoMax {
		stages = append(stages, "atempo="+formatFactor(atempoMax))
		rate /= atempoMax
	}
	stages = append(stages, "atempo="+formatFactor(rate))
	return strings.Join(stages, ",")
}

func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (t *FFmpegTranscoder) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// ExitCode returns the ffmpeg exit status, or -1 if the process did not exit normally.
func (e *FFmpegError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Verify interface implementation at compile time.
var _ Transcoder = (*FFmpegTranscoder)(nil)
