// Package bootstrap provides dependency initialization for speechprep.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/speechprep/internal/audio"
	"github.com/maauso/speechprep/internal/augment"
	"github.com/maauso/speechprep/internal/config"
	"github.com/maauso/speechprep/internal/convert"
	"github.com/maauso/speechprep/internal/job"
	"github.com/maauso/speechprep/internal/media"
	"github.com/maauso/speechprep/internal/pipeline"
	"github.com/maauso/speechprep/internal/storage"
)

// Dependencies holds all initialized dependencies for the CLI.
type Dependencies struct {
	Pipelines *pipeline.Service
	Jobs      job.Repository
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	policy, err := job.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return nil, err
	}

	splitOpts := SplitOpts(cfg)
	if err := splitOpts.Validate(); err != nil {
		return nil, err
	}

	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize ffmpeg-backed transcoder and per-file workers
	transcoder := media.NewFFmpegTranscoder(cfg.FFmpegPath)
	segmenter := audio.NewSegmenter(transcoder, store, logger)
	converter := convert.NewMonoConverter(transcoder, cfg.MonoSampleRate, logger)
	augmenter := augment.NewAugmenter(transcoder, augmentOptions(cfg), logger)

	// Initialize job repository and batch runner
	repo := job.NewMemoryRepository()
	runnerOpts := []job.RunnerOption{job.WithFailurePolicy(policy)}
	if cfg.S3Enabled() {
		runnerOpts = append(runnerOpts, job.WithPublisher(store, cfg.S3Prefix))
	}
	runner := job.NewRunner(repo, logger, runnerOpts...)

	svc := pipeline.NewService(
		segmenter,
		converter,
		augmenter,
		runner,
		logger,
		pipeline.WithSplitOpts(splitOpts),
		pipeline.WithReportPath(cfg.ReportPath),
	)

	return &Dependencies{
		Pipelines: svc,
		Jobs:      repo,
	}, nil
}

// SplitOpts maps the segmentation settings of cfg to audio.SplitOpts.
func SplitOpts(cfg *config.Config) audio.SplitOpts {
	opts := audio.DefaultSplitOpts()
	opts.MinSilenceMs = cfg.MinSilenceLen
	opts.SilenceThreshDB = cfg.SilenceThresh
	opts.KeepSilenceMs = cfg.KeepSilence
	opts.PaddingMs = cfg.PaddingDuration
	opts.MaxSegments = cfg.MaxSegments
	return opts
}

func augmentOptions(cfg *config.Config) augment.Options {
	opts := augment.DefaultOptions()
	opts.Seed = cfg.AugmentSeed
	opts.Mono = cfg.AugmentMono
	return opts
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("prefix", cfg.S3Prefix),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Debug("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
