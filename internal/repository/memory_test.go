package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/soochol/stepflow/internal/stepflow"
)

func TestMemoryRepo_WorkflowLifecycle(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	wf := &stepflow.Workflow{InternalID: "wf-1", ID: "deploy", Name: "Deploy"}
	if err := repo.CreateWorkflow(ctx, wf); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetWorkflow(ctx, "deploy")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Deploy" {
		t.Errorf("expected name 'Deploy', got %q", got.Name)
	}

	list, err := repo.ListWorkflows(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 workflow, got %d", len(list))
	}

	if err := repo.DeleteWorkflow(ctx, "deploy"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetWorkflow(ctx, "deploy"); !errors.Is(err, stepflow.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryRepo_DuplicateWorkflow(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	wf := &stepflow.Workflow{ID: "deploy"}
	if err := repo.CreateWorkflow(ctx, wf); err != nil {
		t.Fatal(err)
	}
	err := repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "deploy"})
	if !errors.Is(err, stepflow.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryRepo_AddStep(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "wf"})

	if err := repo.AddStep(ctx, "wf", &stepflow.Step{ID: "A"}); err != nil {
		t.Fatalf("add step: %v", err)
	}
	if err := repo.AddStep(ctx, "wf", &stepflow.Step{ID: "A"}); !errors.Is(err, stepflow.ErrAlreadyExists) {
		t.Errorf("duplicate step: expected ErrAlreadyExists, got %v", err)
	}
	if err := repo.AddStep(ctx, "nope", &stepflow.Step{ID: "A"}); !errors.Is(err, stepflow.ErrNotFound) {
		t.Errorf("absent workflow: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_StepIDsPerWorkflow(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "wf1"})
	repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "wf2"})

	if err := repo.AddStep(ctx, "wf1", &stepflow.Step{ID: "A"}); err != nil {
		t.Fatal(err)
	}
	// Same step id in a different workflow is fine.
	if err := repo.AddStep(ctx, "wf2", &stepflow.Step{ID: "A"}); err != nil {
		t.Errorf("cross-workflow step id reuse should be allowed, got %v", err)
	}
}

func TestMemoryRepo_AddDependency(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "wf"})
	repo.AddStep(ctx, "wf", &stepflow.Step{ID: "A"})
	repo.AddStep(ctx, "wf", &stepflow.Step{ID: "B"})

	dep := stepflow.Dependency{StepID: "B", PrerequisiteID: "A"}
	if err := repo.AddDependency(ctx, "wf", dep); err != nil {
		t.Fatalf("add dependency: %v", err)
	}
	if err := repo.AddDependency(ctx, "wf", dep); !errors.Is(err, stepflow.ErrAlreadyExists) {
		t.Errorf("duplicate pair: expected ErrAlreadyExists, got %v", err)
	}
	// Reversed pair is a different edge.
	if err := repo.AddDependency(ctx, "wf", stepflow.Dependency{StepID: "A", PrerequisiteID: "B"}); err != nil {
		t.Errorf("reversed pair should be admitted, got %v", err)
	}

	err := repo.AddDependency(ctx, "wf", stepflow.Dependency{StepID: "B", PrerequisiteID: "ghost"})
	if !errors.Is(err, stepflow.ErrNotFound) {
		t.Errorf("missing prerequisite: expected ErrNotFound, got %v", err)
	}
	err = repo.AddDependency(ctx, "nope", dep)
	if !errors.Is(err, stepflow.ErrNotFound) {
		t.Errorf("absent workflow: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_SnapshotIsolation(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "wf"})
	repo.AddStep(ctx, "wf", &stepflow.Step{ID: "A"})

	snap, err := repo.GetWorkflow(ctx, "wf")
	if err != nil {
		t.Fatal(err)
	}
	repo.AddStep(ctx, "wf", &stepflow.Step{ID: "B"})
	if len(snap.Steps) != 1 {
		t.Errorf("snapshot mutated by later write: %d steps", len(snap.Steps))
	}
}

func TestMemoryRepo_ConcurrentCreateOneWinner(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.CreateWorkflow(ctx, &stepflow.Workflow{ID: "race"})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, stepflow.ErrAlreadyExists) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winning create, got %d", wins)
	}
}
