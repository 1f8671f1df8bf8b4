package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	memstore "github.com/soochol/stepflow/internal/repository/memory"
	"github.com/soochol/stepflow/internal/stepflow"
)

// MemoryRepository is a thread-safe in-memory WorkflowRepository. Each
// check-then-insert runs inside one store critical section, so concurrent
// writers cannot violate the uniqueness invariants.
type MemoryRepository struct {
	store *memstore.Store[*stepflow.Workflow]
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		store: memstore.New(func(w *stepflow.Workflow) string { return w.ID }),
	}
}

func (r *MemoryRepository) CreateWorkflow(ctx context.Context, wf *stepflow.Workflow) error {
	if err := r.store.Insert(ctx, wf); err != nil {
		if errors.Is(err, memstore.ErrExists) {
			return fmt.Errorf("%w: workflow %s", stepflow.ErrAlreadyExists, wf.ID)
		}
		return err
	}
	return nil
}

func (r *MemoryRepository) GetWorkflow(ctx context.Context, id string) (*stepflow.Workflow, error) {
	var snapshot *stepflow.Workflow
	err := r.store.View(ctx, id, func(wf *stepflow.Workflow) error {
		snapshot = copyWorkflow(wf)
		return nil
	})
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *MemoryRepository) ListWorkflows(ctx context.Context) ([]*stepflow.Workflow, error) {
	all, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*stepflow.Workflow, len(all))
	for i, wf := range all {
		out[i] = copyWorkflow(wf)
	}
	return out, nil
}

func (r *MemoryRepository) DeleteWorkflow(ctx context.Context, id string) error {
	// Steps and dependencies live inside the workflow record, so removing
	// the record is the cascade.
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, id)
	}
	return nil
}

func (r *MemoryRepository) AddStep(ctx context.Context, workflowID string, step *stepflow.Step) error {
	err := r.store.Mutate(ctx, workflowID, func(wf *stepflow.Workflow) error {
		for _, s := range wf.Steps {
			if s.ID == step.ID {
				return fmt.Errorf("%w: step %s in workflow %s", stepflow.ErrAlreadyExists, step.ID, workflowID)
			}
		}
		wf.Steps = append(wf.Steps, *step)
		return nil
	})
	if errors.Is(err, memstore.ErrNotFound) {
		return fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, workflowID)
	}
	return err
}

func (r *MemoryRepository) AddDependency(ctx context.Context, workflowID string, dep stepflow.Dependency) error {
	err := r.store.Mutate(ctx, workflowID, func(wf *stepflow.Workflow) error {
		if dep.StepID == dep.PrerequisiteID {
			return fmt.Errorf("%w: step %s", stepflow.ErrSelfDependency, dep.StepID)
		}
		hasStep := func(id string) bool {
			for _, s := range wf.Steps {
				if s.ID == id {
					return true
				}
			}
			return false
		}
		if !hasStep(dep.StepID) {
			return fmt.Errorf("%w: step %s in workflow %s", stepflow.ErrNotFound, dep.StepID, workflowID)
		}
		if !hasStep(dep.PrerequisiteID) {
			return fmt.Errorf("%w: step %s in workflow %s", stepflow.ErrNotFound, dep.PrerequisiteID, workflowID)
		}
		for _, d := range wf.Dependencies {
			if d == dep {
				return fmt.Errorf("%w: dependency %s -> %s", stepflow.ErrAlreadyExists, dep.PrerequisiteID, dep.StepID)
			}
		}
		wf.Dependencies = append(wf.Dependencies, dep)
		return nil
	})
	if errors.Is(err, memstore.ErrNotFound) {
		return fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, workflowID)
	}
	return err
}

// copyWorkflow returns a snapshot detached from the stored record, so readers
// never observe a concurrent mutation.
func copyWorkflow(wf *stepflow.Workflow) *stepflow.Workflow {
	cp := *wf
	cp.Steps = slices.Clone(wf.Steps)
	cp.Dependencies = slices.Clone(wf.Dependencies)
	return &cp
}
