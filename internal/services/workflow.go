// Package services holds the business logic between the HTTP handlers and
// the repositories.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soochol/stepflow/internal/graph"
	"github.com/soochol/stepflow/internal/repository"
	"github.com/soochol/stepflow/internal/stepflow"
)

// WorkflowService validates mutations against the entity invariants and
// resolves execution orders over stored workflows. Existence and uniqueness
// checks live in the repository so they stay atomic with the insert.
type WorkflowService struct {
	repo repository.WorkflowRepository
}

// NewWorkflowService creates a WorkflowService on top of a repository.
func NewWorkflowService(repo repository.WorkflowRepository) *WorkflowService {
	return &WorkflowService{repo: repo}
}

// Create registers a new workflow under a caller-supplied id.
func (s *WorkflowService) Create(ctx context.Context, id, name string) (*stepflow.Workflow, error) {
	wf := &stepflow.Workflow{
		InternalID: stepflow.GenerateID("wf"),
		ID:         id,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateWorkflow(ctx, wf); err != nil {
		return nil, err
	}
	slog.Info("workflow created", "workflow", id)
	return wf, nil
}

// List returns all registered workflows.
func (s *WorkflowService) List(ctx context.Context) ([]*stepflow.Workflow, error) {
	return s.repo.ListWorkflows(ctx)
}

// Delete removes a workflow together with all of its steps and dependencies.
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteWorkflow(ctx, id); err != nil {
		return err
	}
	slog.Info("workflow deleted", "workflow", id)
	return nil
}

// AddStep adds a step to a workflow.
func (s *WorkflowService) AddStep(ctx context.Context, workflowID, stepID, description string) (*stepflow.Step, error) {
	step := &stepflow.Step{
		InternalID:  stepflow.GenerateID("step"),
		ID:          stepID,
		Description: description,
	}
	if err := s.repo.AddStep(ctx, workflowID, step); err != nil {
		return nil, err
	}
	return step, nil
}

// AddDependency records that prerequisiteID must run before stepID.
// Validation runs in the repository, in order: workflow exists,
// no self-dependency, both steps exist, pair not already present. The
// self-dependency check precedes the step checks, so it fails the same way
// whether or not the step exists. An edge that closes a cycle is stored;
// the cycle surfaces on the next order resolution.
func (s *WorkflowService) AddDependency(ctx context.Context, workflowID, stepID, prerequisiteID string) error {
	return s.repo.AddDependency(ctx, workflowID, stepflow.Dependency{
		StepID:         stepID,
		PrerequisiteID: prerequisiteID,
	})
}

// Details returns a workflow with each step's prerequisite list attached.
func (s *WorkflowService) Details(ctx context.Context, workflowID string) (*stepflow.WorkflowDetails, error) {
	wf, err := s.repo.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	prereqs := make(map[string][]string, len(wf.Steps))
	for _, d := range wf.Dependencies {
		prereqs[d.StepID] = append(prereqs[d.StepID], d.PrerequisiteID)
	}

	details := &stepflow.WorkflowDetails{
		ID:    wf.ID,
		Name:  wf.Name,
		Steps: make([]stepflow.StepDetail, 0, len(wf.Steps)),
	}
	for _, step := range wf.Steps {
		p := prereqs[step.ID]
		if p == nil {
			p = []string{}
		}
		details.Steps = append(details.Steps, stepflow.StepDetail{
			ID:            step.ID,
			Description:   step.Description,
			Prerequisites: p,
		})
	}
	return details, nil
}

// ExecutionOrder resolves a valid execution order for the workflow: a
// permutation of its step ids in which every prerequisite precedes its
// dependents. A cycle yields the CycleDetected variant, not an error —
// only an absent workflow fails.
func (s *WorkflowService) ExecutionOrder(ctx context.Context, workflowID string) (*stepflow.ExecutionOrder, error) {
	wf, err := s.repo.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	g := graph.Build(wf.Steps, wf.Dependencies)
	order, err := g.ExecutionOrder()
	if errors.Is(err, graph.ErrCycleDetected) {
		slog.Info("cycle detected", "workflow", workflowID)
		return &stepflow.ExecutionOrder{CycleDetected: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stepflow.ExecutionOrder{Order: order}, nil
}
