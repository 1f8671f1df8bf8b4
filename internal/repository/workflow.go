// Package repository defines storage interfaces for domain entities.
package repository

import (
	"context"

	"github.com/soochol/stepflow/internal/stepflow"
)

// WorkflowRepository abstracts workflow persistence so callers don't need to
// know whether storage is in-memory or PostgreSQL.
//
// Every mutation is an atomic check-then-insert: implementations must
// guarantee that two concurrent calls cannot both pass a uniqueness check and
// both insert. Error kinds are the stepflow sentinels — stepflow.ErrNotFound
// for an absent workflow or step, stepflow.ErrAlreadyExists for a uniqueness
// violation.
type WorkflowRepository interface {
	// CreateWorkflow registers a workflow under its caller-supplied id.
	CreateWorkflow(ctx context.Context, wf *stepflow.Workflow) error

	// GetWorkflow returns a snapshot of the workflow with its steps and
	// dependencies loaded.
	GetWorkflow(ctx context.Context, id string) (*stepflow.Workflow, error)

	// ListWorkflows returns snapshots of all workflows.
	ListWorkflows(ctx context.Context) ([]*stepflow.Workflow, error)

	// DeleteWorkflow removes the workflow and, by ownership, all of its
	// steps and dependencies.
	DeleteWorkflow(ctx context.Context, id string) error

	// AddStep adds a step to the workflow. The step id must be unused
	// within that workflow.
	AddStep(ctx context.Context, workflowID string, step *stepflow.Step) error

	// AddDependency records a prerequisite edge. Checks run in order:
	// workflow exists, no self-dependency (stepflow.ErrSelfDependency),
	// both endpoint steps exist, pair not already present. Edges that
	// close a cycle are admitted; cycles surface only at order-resolution
	// time.
	AddDependency(ctx context.Context, workflowID string, dep stepflow.Dependency) error
}
