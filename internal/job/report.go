package job

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Report summarises a batch run.
type Report struct {
	RunID      string        `yaml:"run_id"`
	Pipeline   Pipeline      `yaml:"pipeline"`
	Policy     FailurePolicy `yaml:"failure_policy"`
	StartedAt  time.Time     `yaml:"started_at"`
	FinishedAt time.Time     `yaml:"finished_at"`
	Totals     Totals        `yaml:"totals"`
	Files      []FileResult  `yaml:"files"`
}

// Totals counts files by outcome.
type Totals struct {
	Inputs    int `yaml:"inputs"`
	Completed int `yaml:"completed"`
	Failed    int `yaml:"failed"`
	Skipped   int `yaml:"skipped"`
	Outputs   int `yaml:"outputs"`
}

// FileResult is the outcome of one input file.
type FileResult struct {
	Input     string    `yaml:"input"`
	Status    Status    `yaml:"status"`
	Outputs   []string  `yaml:"outputs,omitempty"`
	URLs      []string  `yaml:"urls,omitempty"`
	ErrorKind ErrorKind `yaml:"error_kind,omitempty"`
	Error     string    `yaml:"error,omitempty"`
	ElapsedMs int64     `yaml:"elapsed_ms"`
}

func newReport(runID string, pipeline Pipeline, policy FailurePolicy, startedAt, finishedAt time.Time, jobs []*Job) *Report {
	files := lo.Map(jobs, func(j *Job, _ int) FileResult {
		return FileResult{
			Input:     j.InputPath,
			Status:    j.GetStatus(),
			Outputs:   j.Outputs,
			URLs:      j.URLs,
			ErrorKind: j.ErrorKind,
			Error:     j.Error,
			ElapsedMs: j.Elapsed().Milliseconds(),
		}
	})

	countStatus := func(s Status) int {
		return lo.CountBy(files, func(f FileResult) bool { return f.Status == s })
	}

	return &Report{
		RunID:      runID,
		Pipeline:   pipeline,
		Policy:     policy,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Totals: Totals{
			Inputs:    len(files),
			Completed: countStatus(StatusCompleted),
			Failed:    countStatus(StatusFailed),
			Skipped:   countStatus(StatusSkipped),
			Outputs:   lo.SumBy(files, func(f FileResult) int { return len(f.Outputs) }),
		},
		Files: files,
	}
}

// Failures returns the results of failed files.
func (r *Report) Failures() []FileResult {
	return lo.Filter(r.Files, func(f FileResult, _ int) bool { return f.Status == StatusFailed })
}

// Outputs returns every output path of the run in input order.
func (r *Report) Outputs() []string {
	return lo.FlatMap(r.Files, func(f FileResult, _ int) []string { return f.Outputs })
}

// WriteYAML writes the report to path, creating parent directories.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteYAML.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
