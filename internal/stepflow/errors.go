package stepflow

import "errors"

// ErrNotFound is returned when a referenced workflow or step does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned on a uniqueness violation: a taken workflow id,
// a step id already used in the workflow, or a duplicate dependency pair.
var ErrAlreadyExists = errors.New("already exists")

// ErrSelfDependency is returned when a step is declared a prerequisite of itself.
var ErrSelfDependency = errors.New("self-dependency not allowed")
