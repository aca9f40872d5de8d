// Package pipeline runs the dataset preparation pipelines over a directory:
// silence segmentation, mono conversion and augmentation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/maauso/speechprep/internal/audio"
	"github.com/maauso/speechprep/internal/augment"
	"github.com/maauso/speechprep/internal/job"
)

// Converter writes a converted copy of one file under an output root.
type Converter interface {
	Convert(ctx context.Context, inputRoot, outputRoot, inputPath string) (string, error)
}

// Augmenter writes augmented variants of one clip.
type Augmenter interface {
	AugmentFile(ctx context.Context, path string) ([]string, error)
}

// ClipLister lists the clips to augment below a root directory.
type ClipLister func(root string) ([]string, error)

// BatchRunner runs a per-file operation over a batch of inputs.
type BatchRunner interface {
	Run(ctx context.Context, b job.Batch, op job.Operation) (*job.Report, error)
}

// Service wires the per-file operations to the batch runner.
type Service struct {
	splitter  audio.Splitter
	converter Converter
	augmenter Augmenter
	clips     ClipLister
	runner    BatchRunner
	logger    *slog.Logger

	splitOpts  audio.SplitOpts
	reportPath string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSplitOpts sets the segmentation options. Default: audio.DefaultSplitOpts().
func WithSplitOpts(opts audio.SplitOpts) ServiceOption {
	return func(s *Service) {
		s.splitOpts = opts
	}
}

// WithReportPath writes the YAML report of every run to path.
func WithReportPath(path string) ServiceOption {
	return func(s *Service) {
		s.reportPath = path
	}
}

// WithClipLister replaces the function used to find clips to augment.
// Default: augment.Clips.
func WithClipLister(fn ClipLister) ServiceOption {
	return func(s *Service) {
		s.clips = fn
	}
}

// NewService creates a Service.
func NewService(
	splitter audio.Splitter,
	converter Converter,
	augmenter Augmenter,
	runner BatchRunner,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		splitter:  splitter,
		converter: converter,
		augmenter: augmenter,
		runner:    runner,
		logger:    logger,
		clips:     augment.Clips,
		splitOpts: audio.DefaultSplitOpts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitOpts returns the segmentation options in use.
func (s *Service) SplitOpts() audio.SplitOpts {
	return s.splitOpts
}

// RunSegment splits every supported recording in inputDir into
// {outputBase}/{name}/{name}{n}.wav.
func (s *Service) RunSegment(ctx context.Context, inputDir, outputBase string) (*job.Report, error) {
	if err := s.splitOpts.Validate(); err != nil {
		return nil, err
	}
	inputs, err := ListInputs(inputDir, audio.SupportedExtensions)
	if err != nil {
		return nil, err
	}

	op := func(ctx context.Context, input string) ([]string, error) {
		outputDir := filepath.Join(outputBase, audio.BaseName(input))
		return s.splitter.Split(ctx, input, outputDir, s.splitOpts)
	}

	return s.run(ctx, job.Batch{Pipeline: job.PipelineSegment, Inputs: inputs, OutputRoot: outputBase}, op)
}

// RunMono converts every .wav below inputDir to mono, mirroring the
// directory tree under outputDir.
func (s *Service) RunMono(ctx context.Context, inputDir, outputDir string) (*job.Report, error) {
	inputs, err := WalkInputs(inputDir, []string{".wav"})
	if err != nil {
		return nil, err
	}

	op := func(ctx context.Context, input string) ([]string, error) {
		out, err := s.converter.Convert(ctx, inputDir, outputDir, input)
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	return s.run(ctx, job.Batch{Pipeline: job.PipelineMono, Inputs: inputs, OutputRoot: outputDir}, op)
}

// RunAugment writes augmented variants of the clips in the sub-directories
// of inputDir, next to each clip.
func (s *Service) RunAugment(ctx context.Context, inputDir string) (*job.Report, error) {
	inputs, err := s.clips(inputDir)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, job.Batch{Pipeline: job.PipelineAugment, Inputs: inputs, OutputRoot: inputDir}, s.augmenter.AugmentFile)
}

func (s *Service) run(ctx context.Context, b job.Batch, op job.Operation) (*job.Report, error) {
	report, err := s.runner.Run(ctx, b, op)
	if report == nil || s.reportPath == "" {
		return report, err
	}

	if werr := report.WriteYAML(s.reportPath); werr != nil {
		s.logger.Error("failed to write report",
			slog.String("path", s.reportPath),
			slog.String("error", werr.Error()),
		)
		return report, errors.Join(err, fmt.Errorf("write report: %w", werr))
	}
	s.logger.Info("report written", slog.String("path", s.reportPath))
	return report, err
}
