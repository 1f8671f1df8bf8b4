package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/soochol/stepflow/internal/stepflow"
)

// uniqueViolation is the PostgreSQL error code for a UNIQUE constraint hit.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateWorkflow stores a new workflow. The UNIQUE constraint on the id
// column is the authoritative check, so concurrent creates cannot both win.
func (d *DB) CreateWorkflow(ctx context.Context, wf *stepflow.Workflow) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO workflows (internal_id, id, name, created_at) VALUES ($1, $2, $3, $4)`,
		wf.InternalID, wf.ID, wf.Name, wf.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: workflow %s", stepflow.ErrAlreadyExists, wf.ID)
	}
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow with its steps and dependencies loaded.
func (d *DB) GetWorkflow(ctx context.Context, id string) (*stepflow.Workflow, error) {
	wf := &stepflow.Workflow{}
	err := d.Pool.QueryRowContext(ctx,
		`SELECT internal_id, id, name, created_at FROM workflows WHERE id = $1`, id,
	).Scan(&wf.InternalID, &wf.ID, &wf.Name, &wf.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}

	wf.Steps, err = d.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	wf.Dependencies, err = d.listDependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (d *DB) listSteps(ctx context.Context, workflowID string) ([]stepflow.Step, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT internal_id, id, description FROM steps WHERE workflow_id = $1 ORDER BY id`, workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []stepflow.Step
	for rows.Next() {
		var s stepflow.Step
		if err := rows.Scan(&s.InternalID, &s.ID, &s.Description); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (d *DB) listDependencies(ctx context.Context, workflowID string) ([]stepflow.Dependency, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT step_id, prerequisite_id FROM dependencies WHERE workflow_id = $1 ORDER BY step_id, prerequisite_id`, workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()

	var deps []stepflow.Dependency
	for rows.Next() {
		var dep stepflow.Dependency
		if err := rows.Scan(&dep.StepID, &dep.PrerequisiteID); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

// ListWorkflows returns all workflows with their steps and dependencies.
func (d *DB) ListWorkflows(ctx context.Context) ([]*stepflow.Workflow, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT internal_id, id, name, created_at FROM workflows ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var result []*stepflow.Workflow
	for rows.Next() {
		wf := &stepflow.Workflow{}
		if err := rows.Scan(&wf.InternalID, &wf.ID, &wf.Name, &wf.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		result = append(result, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, wf := range result {
		if wf.Steps, err = d.listSteps(ctx, wf.ID); err != nil {
			return nil, err
		}
		if wf.Dependencies, err = d.listDependencies(ctx, wf.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// DeleteWorkflow removes a workflow; steps and dependencies go with it via
// ON DELETE CASCADE.
func (d *DB) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, id)
	}
	return nil
}

// AddStep inserts a step after verifying the workflow exists. The existence
// check and insert share one transaction so concurrent writers serialize.
func (d *DB) AddStep(ctx context.Context, workflowID string, step *stepflow.Step) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkWorkflowExists(ctx, tx, workflowID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO steps (internal_id, workflow_id, id, description) VALUES ($1, $2, $3, $4)`,
		step.InternalID, workflowID, step.ID, step.Description,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: step %s in workflow %s", stepflow.ErrAlreadyExists, step.ID, workflowID)
	}
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return tx.Commit()
}

// AddDependency inserts a prerequisite edge after verifying both endpoint
// steps exist in the workflow. Duplicate pairs hit the primary key and map
// to ErrAlreadyExists. Edges that close a cycle are admitted.
func (d *DB) AddDependency(ctx context.Context, workflowID string, dep stepflow.Dependency) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := checkWorkflowExists(ctx, tx, workflowID); err != nil {
		return err
	}
	if dep.StepID == dep.PrerequisiteID {
		return fmt.Errorf("%w: step %s", stepflow.ErrSelfDependency, dep.StepID)
	}
	for _, stepID := range []string{dep.StepID, dep.PrerequisiteID} {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM steps WHERE workflow_id = $1 AND id = $2)`,
			workflowID, stepID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check step: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: step %s in workflow %s", stepflow.ErrNotFound, stepID, workflowID)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dependencies (workflow_id, step_id, prerequisite_id) VALUES ($1, $2, $3)`,
		workflowID, dep.StepID, dep.PrerequisiteID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: dependency %s -> %s", stepflow.ErrAlreadyExists, dep.PrerequisiteID, dep.StepID)
	}
	if err != nil {
		return fmt.Errorf("insert dependency: %w", err)
	}
	return tx.Commit()
}

func checkWorkflowExists(ctx context.Context, tx *sql.Tx, workflowID string) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM workflows WHERE id = $1)`, workflowID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check workflow: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: workflow %s", stepflow.ErrNotFound, workflowID)
	}
	return nil
}
