// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInputFolderRequired is returned when INPUT_FOLDER is not set.
	ErrInputFolderRequired = errors.New("config: INPUT_FOLDER is required")
	// ErrOutputFolderRequired is returned when OUTPUT_FOLDER_BASE is not set.
	ErrOutputFolderRequired = errors.New("config: OUTPUT_FOLDER_BASE is required")
	// ErrInvalidConfig is returned when a value is out of range.
	ErrInvalidConfig = errors.New("config: invalid value")
)

// Config holds all configuration for the application.
type Config struct {
	// Folders
	InputFolder      string `env:"INPUT_FOLDER" json:"input_folder"`
	OutputFolderBase string `env:"OUTPUT_FOLDER_BASE" json:"output_folder_base"`

	// Segmentation settings
	MinSilenceLen   int     `env:"MIN_SILENCE_LEN, default=300" json:"min_silence_len" validate:"gt=0"`
	SilenceThresh   float64 `env:"SILENCE_THRESH, default=-30" json:"silence_thresh" validate:"lt=0"`
	KeepSilence     int     `env:"KEEP_SILENCE, default=300" json:"keep_silence" validate:"gte=0"`
	PaddingDuration int     `env:"PADDING_DURATION, default=500" json:"padding_duration" validate:"gte=0"`
	MaxSegments     int     `env:"MAX_SEGMENTS, default=20" json:"max_segments" validate:"gt=0"`

	// Batch settings
	FailurePolicy string `env:"FAILURE_POLICY, default=abort" json:"failure_policy" validate:"oneof=abort continue"`
	ReportPath    string `env:"REPORT_PATH" json:"report_path,omitempty"`

	// Tooling and storage settings
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	TempDir    string `env:"TEMP_DIR, default=/tmp/speechprep" json:"temp_dir"`

	// Mono conversion and augmentation settings
	MonoSampleRate int    `env:"MONO_SAMPLE_RATE, default=16000" json:"mono_sample_rate" validate:"gt=0"`
	AugmentSeed    uint64 `env:"AUGMENT_SEED, default=0" json:"augment_seed"`
	AugmentMono    bool   `env:"AUGMENT_MONO, default=true" json:"augment_mono"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Prefix           string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json TEXT JSON"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`                                        // "debug", "info", "warn", "error"
}

var validate = newValidator()

// newValidator reports field errors by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		return name
	})
	return v
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every value is in range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s=%v fails %s", ErrInvalidConfig, fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// RequireFolders checks that the folders a pipeline needs are set.
func (c *Config) RequireFolders(needOutput bool) error {
	if c.InputFolder == "" {
		return ErrInputFolderRequired
	}
	if needOutput && c.OutputFolderBase == "" {
		return ErrOutputFolderRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{InputFolder: %s, OutputFolderBase: %s, MinSilenceLen: %d, SilenceThresh: %g, KeepSilence: %d, PaddingDuration: %d, MaxSegments: %d, FailurePolicy: %s, TempDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.InputFolder,
		c.OutputFolderBase,
		c.MinSilenceLen,
		c.SilenceThresh,
		c.KeepSilence,
		c.PaddingDuration,
		c.MaxSegments,
		c.FailurePolicy,
		c.TempDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
