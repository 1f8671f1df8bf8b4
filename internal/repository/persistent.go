package repository

import (
	"context"

	"github.com/soochol/stepflow/internal/db"
	"github.com/soochol/stepflow/internal/stepflow"
)

// PersistentRepository is a WorkflowRepository backed by PostgreSQL. The
// database is authoritative: uniqueness rides on its constraints and every
// check-then-insert runs in a single transaction, so the invariants hold
// even with multiple server processes sharing one database.
type PersistentRepository struct {
	db *db.DB
}

// NewPersistent creates a repository backed by PostgreSQL.
func NewPersistent(database *db.DB) *PersistentRepository {
	return &PersistentRepository{db: database}
}

func (r *PersistentRepository) CreateWorkflow(ctx context.Context, wf *stepflow.Workflow) error {
	return r.db.CreateWorkflow(ctx, wf)
}

func (r *PersistentRepository) GetWorkflow(ctx context.Context, id string) (*stepflow.Workflow, error) {
	return r.db.GetWorkflow(ctx, id)
}

func (r *PersistentRepository) ListWorkflows(ctx context.Context) ([]*stepflow.Workflow, error) {
	return r.db.ListWorkflows(ctx)
}

func (r *PersistentRepository) DeleteWorkflow(ctx context.Context, id string) error {
	return r.db.DeleteWorkflow(ctx, id)
}

func (r *PersistentRepository) AddStep(ctx context.Context, workflowID string, step *stepflow.Step) error {
	return r.db.AddStep(ctx, workflowID, step)
}

func (r *PersistentRepository) AddDependency(ctx context.Context, workflowID string, dep stepflow.Dependency) error {
	return r.db.AddDependency(ctx, workflowID, dep)
}
