package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maauso/speechprep/internal/media"
)

// Transcoder converts a compressed input into PCM WAV.
type Transcoder interface {
	ToPCM(ctx context.Context, src, dst string, format media.PCMFormat) error
}

// TempStore hands out unique temporary paths and removes them again.
type TempStore interface {
	TempPath(name, ext string) (string, error)
	CleanupTemp(ctx context.Context, paths []string) error
}

// TranscodeFormat is the intermediate format compressed inputs are converted to.
var TranscodeFormat = media.PCMFormat{SampleRate: 44100, Channels: 2}

// Segmenter implements Splitter by decoding the input in process and
// cutting it at detected silence.
type Segmenter struct {
	transcoder Transcoder
	temp       TempStore
	logger     *slog.Logger
}

// NewSegmenter creates a Segmenter.
// The transcoder and temp store are only used for inputs that need transcoding.
func NewSegmenter(transcoder Transcoder, temp TempStore, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{
		transcoder: transcoder,
		temp:       temp,
		logger:     logger,
	}
}

// Split implements Splitter.Split.
func (s *Segmenter) Split(ctx context.Context, inputPath, outputDir string, opts SplitOpts) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(inputPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	wave, err := s.load(ctx, inputPath, format)
	if err != nil {
		return nil, err
	}

	spans := SplitOnSilence(wave, opts.MinSilenceMs, opts.SilenceThreshDB, opts.KeepSilenceMs, opts.SeekStepMs)
	if len(spans) > opts.MaxSegments {
		s.logger.Debug("dropping segments past cap",
			slog.String("input", inputPath),
			slog.Int("detected", len(spans)),
			slog.Int("max_segments", opts.MaxSegments),
		)
		spans = spans[:opts.MaxSegments]
	}

	base := BaseName(inputPath)
	paths := make([]string, 0, len(spans))
	for i, span := range spans {
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%s%d.wav", base, i+1))
		segment := wave.Slice(span.StartMs, span.EndMs).Padded(opts.PaddingMs)

		if err := WriteWAVFile(outputPath, segment); err != nil {
			// Cleanup already written segments on error
			for _, p := range paths {
				_ = os.Remove(p)
			}
			return nil, fmt.Errorf("write segment %d: %w", i+1, err)
		}

		s.logger.Info("saved segment",
			slog.String("path", outputPath),
			slog.Int("start_ms", span.StartMs),
			slog.Int("end_ms", span.EndMs),
		)
		paths = append(paths, outputPath)
	}

	return paths, nil
}

// load decodes inputPath, transcoding it through a temporary WAV first when
// the format requires it. The temporary file is removed on every return path.
func (s *Segmenter) load(ctx context.Context, inputPath string, format Format) (*Waveform, error) {
	if !format.NeedsTranscode() {
		return ReadWAVFile(inputPath)
	}

	tmp, err := s.temp.TempPath("transcode", ".wav")
	if err != nil {
		return nil, fmt.Errorf("allocate temp file: %w", err)
	}
	defer func() {
		if err := s.temp.CleanupTemp(context.WithoutCancel(ctx), []string{tmp}); err != nil {
			s.logger.Warn("failed to remove temp file",
				slog.String("path", tmp),
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := s.transcoder.ToPCM(ctx, inputPath, tmp, TranscodeFormat); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transcode %s: %w", inputPath, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrTranscodeFailed, inputPath, err)
	}

	return ReadWAVFile(tmp)
}

// Verify interface implementation at compile time.
var _ Splitter = (*Segmenter)(nil)
