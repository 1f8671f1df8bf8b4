package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/soochol/stepflow/internal/stepflow"
)

type createWorkflowRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type addStepRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type addDependencyRequest struct {
	StepID         string `json:"step_id"`
	PrerequisiteID string `json:"prerequisite_id"`
}

// writeError maps the domain error kinds onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stepflow.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, stepflow.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, stepflow.ErrSelfDependency):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req createWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	wf, err := s.workflowSvc.Create(r.Context(), req.ID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := s.workflowSvc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if workflows == nil {
		workflows = []*stepflow.Workflow{}
	}
	writeJSON(w, http.StatusOK, workflows)
}

func (s *Server) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.workflowSvc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addStep(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "id")
	var req addStepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	step, err := s.workflowSvc.AddStep(r.Context(), workflowID, req.ID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, step)
}

func (s *Server) addDependency(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "id")
	var req addDependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StepID == "" || req.PrerequisiteID == "" {
		http.Error(w, "step_id and prerequisite_id are required", http.StatusBadRequest)
		return
	}
	if err := s.workflowSvc.AddDependency(r.Context(), workflowID, req.StepID, req.PrerequisiteID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "dependency_added"})
}

func (s *Server) getWorkflowDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	details, err := s.workflowSvc.Details(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// getExecutionOrder returns either {"order": [...]} or
// {"cycle_detected": true}. Both are 200s: a cycle is a definitive answer
// about the stored graph, not a request failure.
func (s *Server) getExecutionOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := s.workflowSvc.ExecutionOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.CycleDetected {
		writeJSON(w, http.StatusOK, map[string]bool{"cycle_detected": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"order": result.Order})
}
