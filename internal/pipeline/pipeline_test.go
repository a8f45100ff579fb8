package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/careernest/credsheet/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *model.Job) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *model.Job) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineExecute tests step execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New(WithLogger(quietLogger()))
		for _, name := range []string{"first", "second", "third"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.Job) error {
					order = append(order, name)
					return nil
				},
			})
		}

		job := model.NewJob("test", "", "", "pdf")
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(order) != 3 || order[0] != "first" || order[2] != "third" {
			t.Errorf("unexpected order %v", order)
		}
		if len(job.CompletedSteps) != 3 {
			t.Errorf("expected 3 completed steps, got %v", job.CompletedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		failErr := errors.New("boom")
		after := &mockStep{name: "after"}
		p := New(WithLogger(quietLogger()))
		p.AddSteps(
			&mockStep{name: "fail", doFunc: func(context.Context, *model.Job) error { return failErr }},
			after,
		)

		job := model.NewJob("test", "", "", "pdf")
		if err := p.Execute(context.Background(), job); !errors.Is(err, failErr) {
			t.Fatalf("expected boom, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("expected later step not to run")
		}
		if !job.Failed() || job.ErrorMessage != "boom" {
			t.Errorf("expected error recorded on job, got %q", job.ErrorMessage)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		after := &mockStep{name: "after"}
		p := New(WithLogger(quietLogger()), WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "fail1", doFunc: func(context.Context, *model.Job) error { return errors.New("first") }},
			&mockStep{name: "fail2", doFunc: func(context.Context, *model.Job) error { return errors.New("second") }},
			after,
		)

		job := model.NewJob("test", "", "", "pdf")
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if after.callCount != 1 {
			t.Error("expected later step to run")
		}
		if job.ErrorMessage != "first" {
			t.Errorf("expected first error kept, got %q", job.ErrorMessage)
		}
		if len(job.CompletedSteps) != 1 || job.CompletedSteps[0] != "after" {
			t.Errorf("unexpected completed steps %v", job.CompletedSteps)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New(WithLogger(quietLogger()))
		p.AddStep(step)

		job := model.NewJob("test", "", "", "pdf")
		if err := p.Execute(ctx, job); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected step not to run")
		}
		if !job.Failed() {
			t.Error("expected job marked failed")
		}
	})
}

// TestPipelineStepNames tests step name listing.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty pipeline", func(t *testing.T) {
		t.Parallel()

		if names := New().StepNames(); len(names) != 0 {
			t.Errorf("expected empty names, got %v", names)
		}
	})

	t.Run("standard pipeline order", func(t *testing.T) {
		t.Parallel()

		p := NewGenerationPipeline(Settings{FillPasswords: true, History: &memoryHistory{}, Logger: quietLogger()})
		want := []string{"load", "validate", "fill_passwords", "render", "write_file", "record_history"}
		got := p.StepNames()
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("step %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("optional steps are left out", func(t *testing.T) {
		t.Parallel()

		p := NewGenerationPipeline(Settings{Logger: quietLogger()})
		if p.StepCount() != 4 {
			t.Errorf("expected 4 steps, got %v", p.StepNames())
		}
	})
}
