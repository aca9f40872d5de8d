package job

import (
	"testing"
)

func TestNew(t *testing.T) {
	job := New("run-1", 3, PipelineSegment, "/in/a.wav")

	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.RunID != "run-1" || job.Seq != 3 {
		t.Errorf("unexpected run/seq: %s/%d", job.RunID, job.Seq)
	}
	if job.Pipeline != PipelineSegment {
		t.Errorf("expected pipeline %s, got %s", PipelineSegment, job.Pipeline)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %s, got %s", StatusQueued, job.Status)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestJob_ValidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"QUEUED to RUNNING", StatusQueued, StatusRunning, false},
		{"QUEUED to SKIPPED", StatusQueued, StatusSkipped, false},
		{"RUNNING to COMPLETED", StatusRunning, StatusCompleted, false},
		{"RUNNING to FAILED", StatusRunning, StatusFailed, false},
		{"QUEUED to COMPLETED", StatusQueued, StatusCompleted, true},
		{"QUEUED to FAILED", StatusQueued, StatusFailed, true},
		{"RUNNING to SKIPPED", StatusRunning, StatusSkipped, true},
		{"COMPLETED to RUNNING", StatusCompleted, StatusRunning, true},
		{"FAILED to COMPLETED", StatusFailed, StatusCompleted, true},
		{"SKIPPED to RUNNING", StatusSkipped, StatusRunning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := New("run", 0, PipelineMono, "x.wav")
			job.Status = tt.from

			err := job.TransitionTo(tt.to)

			if tt.wantErr && err == nil {
				t.Errorf("expected error for transition %s -> %s", tt.from, tt.to)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestJob_Complete(t *testing.T) {
	job := New("run", 0, PipelineSegment, "a.wav")
	_ = job.Start()

	outputs := []string{"out/a1.wav", "out/a2.wav"}
	if err := job.Complete(outputs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outputs[0] = "mutated"

	if job.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, job.Status)
	}
	if job.Outputs[0] != "out/a1.wav" {
		t.Error("expected outputs to be copied")
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
	if job.Elapsed() < 0 {
		t.Error("expected non-negative elapsed time")
	}
}

func TestJob_Fail(t *testing.T) {
	job := New("run", 0, PipelineSegment, "a.wav")
	_ = job.Start()

	if err := job.Fail(KindDecodeFailed, "bad header"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.ErrorKind != KindDecodeFailed || job.Error != "bad header" {
		t.Errorf("unexpected failure record: %s %q", job.ErrorKind, job.Error)
	}
}

func TestJob_Fail_FromQueued(t *testing.T) {
	job := New("run", 0, PipelineSegment, "a.wav")
	if err := job.Fail(KindIO, "boom"); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Error != "" {
		t.Error("expected failure not to be recorded")
	}
}

func TestJob_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusQueued, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusSkipped, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := New("run", 0, PipelineAugment, "a.wav")
			job.Status = tt.status
			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("expected IsTerminal()=%v for %s, got %v", tt.terminal, tt.status, got)
			}
		})
	}
}

func TestJob_Elapsed_NotStarted(t *testing.T) {
	job := New("run", 0, PipelineSegment, "a.wav")
	if job.Elapsed() != 0 {
		t.Errorf("expected zero elapsed, got %s", job.Elapsed())
	}
}

func TestJob_Clone(t *testing.T) {
	job := New("run", 1, PipelineSegment, "a.wav")
	_ = job.Start()
	_ = job.Complete([]string{"a1.wav"})
	job.SetURLs([]string{"https://example/a1.wav"})

	clone := job.Clone()

	if clone.ID != job.ID || clone.Seq != job.Seq || clone.Status != job.Status {
		t.Error("expected clone to match original")
	}
	clone.Outputs[0] = "changed"
	clone.URLs[0] = "changed"
	if job.Outputs[0] != "a1.wav" || job.URLs[0] != "https://example/a1.wav" {
		t.Error("expected clone slices to be independent")
	}
}

func TestJob_GetStatus(t *testing.T) {
	job := New("run", 0, PipelineAugment, "x.wav")

	if got := job.GetStatus(); got != StatusQueued {
		t.Errorf("expected %s, got %s", StatusQueued, got)
	}
	if err := job.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := job.GetStatus(); got != StatusRunning {
		t.Errorf("expected %s, got %s", StatusRunning, got)
	}
}
