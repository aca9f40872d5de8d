package job

import (
	"context"
	"testing"
)

func TestMemoryRepository_Save(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("run", 0, PipelineSegment, "a.wav")

	if err := repo.Save(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := repo.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID != job.ID {
		t.Errorf("expected ID %s, got %s", job.ID, saved.ID)
	}
}

func TestMemoryRepository_Save_Update(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("run", 0, PipelineSegment, "a.wav")

	_ = repo.Save(ctx, job)

	_ = job.Start()
	_ = job.Complete([]string{"a1.wav"})
	_ = repo.Save(ctx, job)

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusCompleted {
		t.Errorf("expected status %s, got %s", StatusCompleted, saved.Status)
	}
	if len(saved.Outputs) != 1 {
		t.Errorf("expected 1 output, got %d", len(saved.Outputs))
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "nonexistent")
	if err != ErrJobNotFound {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_Isolation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	job := New("run", 0, PipelineSegment, "a.wav")
	_ = repo.Save(ctx, job)

	// Mutating the original after Save must not affect the stored copy
	_ = job.Start()

	saved, _ := repo.FindByID(ctx, job.ID)
	if saved.Status != StatusQueued {
		t.Errorf("expected stored status %s, got %s", StatusQueued, saved.Status)
	}
}

func TestMemoryRepository_ListByRun(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, seq := range []int{2, 0, 1} {
		_ = repo.Save(ctx, New("run-a", seq, PipelineSegment, "a.wav"))
	}
	_ = repo.Save(ctx, New("run-b", 0, PipelineSegment, "b.wav"))

	jobs, err := repo.ListByRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, j := range jobs {
		if j.Seq != i {
			t.Errorf("expected seq %d at position %d, got %d", i, i, j.Seq)
		}
	}

	empty, _ := repo.ListByRun(ctx, "missing")
	if len(empty) != 0 {
		t.Errorf("expected no jobs, got %d", len(empty))
	}
}
