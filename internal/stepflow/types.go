// Package stepflow defines the domain entities shared across the service:
// workflows, their steps, and the dependency edges between steps.
package stepflow

import (
	"time"

	"github.com/google/uuid"
)

// Workflow is a named collection of steps and the dependencies between them.
// ID is caller-supplied and globally unique; InternalID is generated on create.
type Workflow struct {
	InternalID   string       `json:"internal_id"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Steps        []Step       `json:"steps"`
	Dependencies []Dependency `json:"dependencies"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Step is a unit of work within a workflow. ID is unique within the owning
// workflow only; the same step id may appear in other workflows.
type Step struct {
	InternalID  string `json:"internal_id"`
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Dependency is a directed must-run-before edge: PrerequisiteID must execute
// before StepID. The (StepID, PrerequisiteID) pair is unique per workflow.
type Dependency struct {
	StepID         string `json:"step_id"`
	PrerequisiteID string `json:"prerequisite_id"`
}

// StepDetail is a step together with the ids of its prerequisite steps,
// as returned by the workflow details operation.
type StepDetail struct {
	ID            string   `json:"id"`
	Description   string   `json:"description"`
	Prerequisites []string `json:"prerequisites"`
}

// WorkflowDetails is the read model for one workflow.
type WorkflowDetails struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Steps []StepDetail `json:"steps"`
}

// ExecutionOrder is the result of resolving a workflow's execution order.
// Exactly one variant applies: Order holds a total ordering of all step ids,
// or CycleDetected is true and Order is empty. A cycle is a valid outcome,
// not an error.
type ExecutionOrder struct {
	Order         []string `json:"order,omitempty"`
	CycleDetected bool     `json:"cycle_detected,omitempty"`
}

// GenerateID generates a random internal record id with the given prefix.
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
