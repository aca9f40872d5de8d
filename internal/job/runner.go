package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/maauso/speechprep/internal/job/id"
)

// FailurePolicy decides what a run does after a file fails.
type FailurePolicy string

const (
	// PolicyAbort stops the run at the first failed file and skips the rest.
	PolicyAbort FailurePolicy = "abort"
	// PolicyContinue records the failure and moves on to the next file.
	PolicyContinue FailurePolicy = "continue"
)

// Static errors for batch runs.
var (
	// ErrBatchAborted is returned when a run stops early under PolicyAbort.
	ErrBatchAborted = errors.New("batch aborted")
	// ErrUnknownPolicy is returned for an unrecognised failure policy name.
	ErrUnknownPolicy = errors.New("unknown failure policy")
)

// ParseFailurePolicy converts a policy name to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(s); p {
	case PolicyAbort, PolicyContinue:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Operation processes one input file and returns the files it wrote.
type Operation func(ctx context.Context, inputPath string) ([]string, error)

// Publisher uploads finished files.
type Publisher interface {
	UploadToS3(ctx context.Context, key string, data io.Reader) (string, error)
}

// Runner executes an Operation over a list of inputs, one file at a time,
// recording every file as a Job in the repository.
type Runner struct {
	repo   Repository
	logger *slog.Logger
	policy FailurePolicy

	publisher     Publisher
	publishPrefix string
}

// Batch describes one run over a list of inputs.
type Batch struct {
	Pipeline Pipeline
	Inputs   []string
	// OutputRoot is the directory published object keys are relative to.
	OutputRoot string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFailurePolicy sets the failure policy. Default: PolicyAbort.
func WithFailurePolicy(p FailurePolicy) RunnerOption {
	return func(r *Runner) {
		r.policy = p
	}
}

// WithPublisher uploads every output after its file completes. Object keys
// are the output path relative to the batch output root, joined under prefix.
func WithPublisher(p Publisher, prefix string) RunnerOption {
	return func(r *Runner) {
		r.publisher = p
		r.publishPrefix = prefix
	}
}

// NewRunner creates a Runner that stores jobs in repo.
func NewRunner(repo Repository, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		repo:   repo,
		logger: logger,
		policy: PolicyAbort,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes the batch inputs in order with op and returns the run report.
//
// Under PolicyAbort the first failure stops the run, the remaining files are
// marked SKIPPED and the returned error wraps ErrBatchAborted. Under
// PolicyContinue failures are only recorded in the report. Cancelling ctx
// stops the run before the next file. The report is returned in every case.
func (r *Runner) Run(ctx context.Context, b Batch, op Operation) (*Report, error) {
	runID := id.Generate("run")
	startedAt := time.Now()
	log := r.logger.With(slog.String("run_id", runID), slog.String("pipeline", string(b.Pipeline)))

	jobs := make([]*Job, len(b.Inputs))
	for i, input := range b.Inputs {
		jobs[i] = New(runID, i, b.Pipeline, input)
		if err := r.repo.Save(ctx, jobs[i]); err != nil {
			return nil, fmt.Errorf("save job: %w", err)
		}
	}

	log.Info("starting batch",
		slog.Int("inputs", len(b.Inputs)),
		slog.String("failure_policy", string(r.policy)),
	)

	var runErr error
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("batch cancelled: %w", err)
			r.skip(ctx, log, jobs[i:])
			break
		}

		err := r.process(ctx, log, b.OutputRoot, j, op)
		if err != nil && r.policy == PolicyAbort {
			runErr = fmt.Errorf("%w: %s: %w", ErrBatchAborted, j.InputPath, err)
			r.skip(ctx, log, jobs[i+1:])
			break
		}
	}

	report, err := r.report(ctx, runID, b.Pipeline, startedAt)
	if err != nil {
		return nil, err
	}

	log.Info("batch finished",
		slog.Int("completed", report.Totals.Completed),
		slog.Int("failed", report.Totals.Failed),
		slog.Int("skipped", report.Totals.Skipped),
		slog.Int("outputs", report.Totals.Outputs),
	)

	return report, runErr
}

// process runs op for a single job and records the outcome.
func (r *Runner) process(ctx context.Context, log *slog.Logger, root string, j *Job, op Operation) error {
	if err := j.Start(); err != nil {
		return err
	}
	r.save(ctx, log, j)

	outputs, err := op(ctx, j.InputPath)
	var urls []string
	if err == nil && r.publisher != nil {
		urls, err = r.publish(ctx, root, outputs)
	}

	if err != nil {
		kind := Classify(err)
		if terr := j.Fail(kind, err.Error()); terr != nil {
			logTransition(log, j, StatusFailed, terr)
		}
		r.save(ctx, log, j)
		log.Error("file failed",
			slog.String("input", j.InputPath),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return err
	}

	if terr := j.Complete(outputs); terr != nil {
		logTransition(log, j, StatusCompleted, terr)
	}
	if urls != nil {
		j.SetURLs(urls)
	}
	r.save(ctx, log, j)
	log.Info("file completed",
		slog.String("input", j.InputPath),
		slog.Int("outputs", len(outputs)),
		slog.Duration("elapsed", j.Elapsed()),
	)
	return nil
}

// save stores j, logging instead of failing the file when the repository
// rejects it. The job itself still carries the outcome.
func (r *Runner) save(ctx context.Context, log *slog.Logger, j *Job) {
	if err := r.repo.Save(context.WithoutCancel(ctx), j); err != nil {
		log.Warn("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("status", string(j.GetStatus())),
			slog.String("error", err.Error()),
		)
	}
}

func logTransition(log *slog.Logger, j *Job, to Status, err error) {
	log.Warn("rejected job transition",
		slog.String("job_id", j.ID),
		slog.String("from", string(j.GetStatus())),
		slog.String("to", string(to)),
		slog.String("error", err.Error()),
	)
}

// publish uploads outputs and returns their URLs in the same order.
func (r *Runner) publish(ctx context.Context, root string, outputs []string) ([]string, error) {
	urls := make([]string, 0, len(outputs))
	for _, out := range outputs {
		url, err := r.upload(ctx, r.objectKey(root, out), out)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errPublish, out, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (r *Runner) upload(ctx context.Context, key, file string) (string, error) {
	f, err := os.Open(file) // #nosec G304 - file was just written by the pipeline
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	return r.publisher.UploadToS3(ctx, key, f)
}

// objectKey maps an output path to its object key under the publish prefix.
// Files outside root are keyed by their base name.
func (r *Runner) objectKey(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	return path.Join(r.publishPrefix, filepath.ToSlash(rel))
}

func (r *Runner) skip(ctx context.Context, log *slog.Logger, jobs []*Job) {
	for _, j := range jobs {
		if j.GetStatus() != StatusQueued {
			continue
		}
		if err := j.Skip(); err != nil {
			logTransition(log, j, StatusSkipped, err)
			continue
		}
		r.save(ctx, log, j)
	}
}

func (r *Runner) report(ctx context.Context, runID string, pipeline Pipeline, startedAt time.Time) (*Report, error) {
	jobs, err := r.repo.ListByRun(context.WithoutCancel(ctx), runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return newReport(runID, pipeline, r.policy, startedAt, time.Now(), jobs), nil
}
