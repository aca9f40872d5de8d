package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/speechprep/internal/bootstrap"
	"github.com/maauso/speechprep/internal/config"
	"github.com/maauso/speechprep/internal/job"
)

// newRootCmd builds the command tree. Flag defaults come from cfg, so a flag
// only changes a value when it is given explicitly.
func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "speechprep",
		Short:         "Prepare speech datasets from raw recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.InputFolder, "input", cfg.InputFolder, "input folder (INPUT_FOLDER)")
	pf.StringVar(&cfg.FailurePolicy, "failure-policy", cfg.FailurePolicy, "abort or continue after a failed file (FAILURE_POLICY)")
	pf.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "write a YAML run report to this path (REPORT_PATH)")
	pf.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "path to the ffmpeg binary (FFMPEG_PATH)")
	pf.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "directory for temporary files (TEMP_DIR)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json (LOG_FORMAT)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (LOG_LEVEL)")

	root.AddCommand(
		newSegmentCmd(cfg),
		newMonoCmd(cfg),
		newAugmentCmd(cfg),
	)
	return root
}

func newSegmentCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Split recordings into silence-delimited clips",
		Long: `Split every .wav and .m4a file in the input folder at silence.
Segments are written as <output>/<name>/<name><n>.wav with padding added
before and after each one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, logger, err := prepare(cfg, true)
			if err != nil {
				return err
			}
			logger.Info("starting segmentation",
				slog.String("input", cfg.InputFolder),
				slog.String("output", cfg.OutputFolderBase),
				slog.Int("min_silence_len", cfg.MinSilenceLen),
				slog.Float64("silence_thresh", cfg.SilenceThresh),
				slog.Int("keep_silence", cfg.KeepSilence),
				slog.Int("padding_duration", cfg.PaddingDuration),
				slog.Int("max_segments", cfg.MaxSegments),
			)
			report, err := deps.Pipelines.RunSegment(cmd.Context(), cfg.InputFolder, cfg.OutputFolderBase)
			printSummary(cmd.OutOrStdout(), report)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.OutputFolderBase, "output", cfg.OutputFolderBase, "output base folder (OUTPUT_FOLDER_BASE)")
	f.IntVar(&cfg.MinSilenceLen, "min-silence", cfg.MinSilenceLen, "minimum silence length in ms (MIN_SILENCE_LEN)")
	f.Float64Var(&cfg.SilenceThresh, "silence-thresh", cfg.SilenceThresh, "silence threshold in dBFS (SILENCE_THRESH)")
	f.IntVar(&cfg.KeepSilence, "keep-silence", cfg.KeepSilence, "silence kept around each segment in ms (KEEP_SILENCE)")
	f.IntVar(&cfg.PaddingDuration, "padding", cfg.PaddingDuration, "padding added to each segment in ms (PADDING_DURATION)")
	f.IntVar(&cfg.MaxSegments, "max-segments", cfg.MaxSegments, "maximum segments per recording (MAX_SEGMENTS)")
	return cmd
}

func newMonoCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mono",
		Short: "Convert a tree of WAV files to mono",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, logger, err := prepare(cfg, true)
			if err != nil {
				return err
			}
			logger.Info("starting mono conversion",
				slog.String("input", cfg.InputFolder),
				slog.String("output", cfg.OutputFolderBase),
				slog.Int("sample_rate", cfg.MonoSampleRate),
			)
			report, err := deps.Pipelines.RunMono(cmd.Context(), cfg.InputFolder, cfg.OutputFolderBase)
			printSummary(cmd.OutOrStdout(), report)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.OutputFolderBase, "output", cfg.OutputFolderBase, "output folder (OUTPUT_FOLDER_BASE)")
	f.IntVar(&cfg.MonoSampleRate, "sample-rate", cfg.MonoSampleRate, "output sample rate in Hz (MONO_SAMPLE_RATE)")
	return cmd
}

func newAugmentCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Write stretched, pitched and noisy variants of clips",
		Long: `Augment the .wav clips in every sub-folder of the input folder.
Variants are written next to each clip as <name>_stretched.wav,
<name>_pitched.wav and <name>_noisy.wav.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, logger, err := prepare(cfg, false)
			if err != nil {
				return err
			}
			logger.Info("starting augmentation",
				slog.String("input", cfg.InputFolder),
				slog.Uint64("seed", cfg.AugmentSeed),
				slog.Bool("mono", cfg.AugmentMono),
			)
			report, err := deps.Pipelines.RunAugment(cmd.Context(), cfg.InputFolder)
			printSummary(cmd.OutOrStdout(), report)
			return err
		},
	}

	f := cmd.Flags()
	f.Uint64Var(&cfg.AugmentSeed, "seed", cfg.AugmentSeed, "noise seed, 0 for time based (AUGMENT_SEED)")
	f.BoolVar(&cfg.AugmentMono, "mono", cfg.AugmentMono, "write mono variants (AUGMENT_MONO)")
	return cmd
}

// prepare validates the final configuration and builds the dependencies.
func prepare(cfg *config.Config, needOutput bool) (*bootstrap.Dependencies, *slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireFolders(needOutput); err != nil {
		return nil, nil, err
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize dependencies: %w", err)
	}
	return deps, logger, nil
}

func printSummary(w io.Writer, report *job.Report) {
	if report == nil {
		return
	}
	t := report.Totals
	fmt.Fprintf(w, "%s: %d files, %d completed, %d failed, %d skipped, %d outputs\n",
		report.Pipeline, t.Inputs, t.Completed, t.Failed, t.Skipped, t.Outputs)
	for _, f := range report.Failures() {
		fmt.Fprintf(w, "  %s: %s (%s)\n", f.Input, f.Error, f.ErrorKind)
	}
}
