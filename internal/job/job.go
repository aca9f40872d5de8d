// Package job tracks the processing of individual input files within a batch
// run. Each Job records one file's state, outputs and failure, and the Runner
// drives a list of jobs through a per-file operation under a failure policy.
package job

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maauso/speechprep/internal/job/id"
)

// Pipeline names the batch pipeline a job belongs to.
type Pipeline string

const (
	// PipelineSegment splits recordings at silence.
	PipelineSegment Pipeline = "segment"
	// PipelineMono converts files to mono at a fixed sample rate.
	PipelineMono Pipeline = "mono"
	// PipelineAugment writes augmented variants of clips.
	PipelineAugment Pipeline = "augment"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the file is waiting to be processed.
	StatusQueued Status = "QUEUED"
	// StatusRunning indicates the file is being processed.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the file was processed successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates processing the file returned an error.
	StatusFailed Status = "FAILED"
	// StatusSkipped indicates the batch stopped before the file was processed.
	StatusSkipped Status = "SKIPPED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusQueued:    {StatusRunning, StatusSkipped},
	StatusRunning:   {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusSkipped:   {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Job is the processing record of one input file.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// RunID identifies the batch run the job belongs to.
	RunID string
	// Seq is the position of the input in the batch.
	Seq int
	// Pipeline is the batch pipeline processing the input.
	Pipeline Pipeline
	// Status is the current job state.
	Status Status
	// InputPath is the path of the file being processed.
	InputPath string
	// Outputs are the files written for the input, in order.
	Outputs []string
	// URLs are the published locations of Outputs, when publishing is enabled.
	URLs []string
	// ErrorKind classifies the failure, if any.
	ErrorKind ErrorKind
	// Error contains the error message if processing failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a queued Job for inputPath at position seq of run runID.
func New(runID string, seq int, pipeline Pipeline, inputPath string) *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate("job"),
		RunID:     runID,
		Seq:       seq,
		Pipeline:  pipeline,
		Status:    StatusQueued,
		InputPath: inputPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	// Set timestamps based on state
	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusSkipped:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from QUEUED to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete records outputs and transitions the job to COMPLETED.
func (j *Job) Complete(outputs []string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	j.Outputs = slices.Clone(outputs)
	return nil
}

// Fail records the failure and transitions the job to FAILED.
func (j *Job) Fail(kind ErrorKind, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.ErrorKind = kind
	j.Error = errMsg
	return nil
}

// Skip transitions a queued job to SKIPPED.
func (j *Job) Skip() error {
	return j.TransitionTo(StatusSkipped)
}

// SetURLs records the published locations of the outputs.
func (j *Job) SetURLs(urls []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.URLs = slices.Clone(urls)
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusSkipped
}

// Elapsed returns the processing time of a finished job, or zero.
func (j *Job) Elapsed() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.StartedAt.IsZero() || j.CompletedAt.IsZero() {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		RunID:       j.RunID,
		Seq:         j.Seq,
		Pipeline:    j.Pipeline,
		Status:      j.Status,
		InputPath:   j.InputPath,
		Outputs:     slices.Clone(j.Outputs),
		URLs:        slices.Clone(j.URLs),
		ErrorKind:   j.ErrorKind,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
