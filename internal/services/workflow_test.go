package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/soochol/stepflow/internal/repository"
	"github.com/soochol/stepflow/internal/stepflow"
)

func newTestService(t *testing.T) (*WorkflowService, context.Context) {
	t.Helper()
	return NewWorkflowService(repository.NewMemory()), context.Background()
}

func mustSetup(t *testing.T, svc *WorkflowService, ctx context.Context, workflowID string, steps []string, deps [][2]string) {
	t.Helper()
	if _, err := svc.Create(ctx, workflowID, workflowID); err != nil {
		t.Fatalf("create workflow: %v", err)
	}
	for _, id := range steps {
		if _, err := svc.AddStep(ctx, workflowID, id, "step "+id); err != nil {
			t.Fatalf("add step %s: %v", id, err)
		}
	}
	for _, d := range deps {
		if err := svc.AddDependency(ctx, workflowID, d[0], d[1]); err != nil {
			t.Fatalf("add dependency %s -> %s: %v", d[1], d[0], err)
		}
	}
}

func TestExecutionOrder_Chain(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf1", []string{"A", "B", "C"}, [][2]string{{"B", "A"}, {"C", "B"}})

	got, err := svc.ExecutionOrder(ctx, "wf1")
	if err != nil {
		t.Fatalf("execution order: %v", err)
	}
	if got.CycleDetected {
		t.Fatal("unexpected cycle")
	}
	if !reflect.DeepEqual(got.Order, []string{"A", "B", "C"}) {
		t.Errorf("order = %v, want [A B C]", got.Order)
	}
}

func TestExecutionOrder_CycleDetected(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf2", []string{"A", "B"}, [][2]string{{"A", "B"}, {"B", "A"}})

	got, err := svc.ExecutionOrder(ctx, "wf2")
	if err != nil {
		t.Fatalf("cycle must not be an error: %v", err)
	}
	if !got.CycleDetected {
		t.Fatal("expected cycle_detected")
	}
	if len(got.Order) != 0 {
		t.Errorf("no partial order may leak out, got %v", got.Order)
	}
}

func TestExecutionOrder_NoDepsLexicographic(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf3", []string{"C", "A", "B"}, nil)

	got, err := svc.ExecutionOrder(ctx, "wf3")
	if err != nil {
		t.Fatalf("execution order: %v", err)
	}
	if !reflect.DeepEqual(got.Order, []string{"A", "B", "C"}) {
		t.Errorf("order = %v, want lexicographic [A B C]", got.Order)
	}
}

func TestExecutionOrder_Idempotent(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf", []string{"x", "y", "z"}, [][2]string{{"z", "x"}})

	first, err := svc.ExecutionOrder(ctx, "wf")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ExecutionOrder(ctx, "wf")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("unchanged state, different answers: %v vs %v", first, second)
	}
}

func TestExecutionOrder_WorkflowNotFound(t *testing.T) {
	svc, ctx := newTestService(t)
	_, err := svc.ExecutionOrder(ctx, "ghost")
	if !errors.Is(err, stepflow.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddDependency_SelfDependency(t *testing.T) {
	svc, ctx := newTestService(t)
	if _, err := svc.Create(ctx, "wf", "wf"); err != nil {
		t.Fatal(err)
	}

	// Rejected whether or not step A exists.
	err := svc.AddDependency(ctx, "wf", "A", "A")
	if !errors.Is(err, stepflow.ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency before existence checks, got %v", err)
	}
	if _, err := svc.AddStep(ctx, "wf", "A", ""); err != nil {
		t.Fatal(err)
	}
	err = svc.AddDependency(ctx, "wf", "A", "A")
	if !errors.Is(err, stepflow.ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency with existing step, got %v", err)
	}
}

func TestAddDependency_CycleIsStorable(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf", []string{"A", "B"}, [][2]string{{"B", "A"}})

	// Closing the cycle passes validation; only resolution reports it.
	if err := svc.AddDependency(ctx, "wf", "A", "B"); err != nil {
		t.Fatalf("cycle-closing edge must be admitted, got %v", err)
	}
	got, err := svc.ExecutionOrder(ctx, "wf")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CycleDetected {
		t.Fatal("expected cycle_detected after closing the cycle")
	}
}

func TestAddDependency_Duplicate(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf", []string{"A", "B"}, [][2]string{{"B", "A"}})

	err := svc.AddDependency(ctx, "wf", "B", "A")
	if !errors.Is(err, stepflow.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDetails(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf", []string{"A", "B", "C"}, [][2]string{{"C", "A"}, {"C", "B"}})

	details, err := svc.Details(ctx, "wf")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.ID != "wf" || len(details.Steps) != 3 {
		t.Fatalf("unexpected details: %+v", details)
	}
	byID := map[string]stepflow.StepDetail{}
	for _, s := range details.Steps {
		byID[s.ID] = s
	}
	if len(byID["C"].Prerequisites) != 2 {
		t.Errorf("C prerequisites = %v, want [A B]", byID["C"].Prerequisites)
	}
	if len(byID["A"].Prerequisites) != 0 {
		t.Errorf("A prerequisites = %v, want empty", byID["A"].Prerequisites)
	}
}

func TestDelete_Cascades(t *testing.T) {
	svc, ctx := newTestService(t)
	mustSetup(t, svc, ctx, "wf", []string{"A", "B"}, [][2]string{{"B", "A"}})

	if err := svc.Delete(ctx, "wf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Details(ctx, "wf"); !errors.Is(err, stepflow.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Recreating the workflow starts from a clean slate.
	mustSetup(t, svc, ctx, "wf", []string{"A"}, nil)
	details, err := svc.Details(ctx, "wf")
	if err != nil {
		t.Fatal(err)
	}
	if len(details.Steps) != 1 {
		t.Errorf("old steps survived the cascade: %+v", details.Steps)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	svc, ctx := newTestService(t)
	if _, err := svc.Create(ctx, "wf", "first"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, "wf", "second")
	if !errors.Is(err, stepflow.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}
