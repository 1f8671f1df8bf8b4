// Package api exposes the workflow service over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/soochol/stepflow/internal/services"
)

type Server struct {
	workflowSvc *services.WorkflowService
}

func NewServer(workflowSvc *services.WorkflowService) *Server {
	return &Server{workflowSvc: workflowSvc}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))
	r.Route("/api", func(r chi.Router) {
		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", s.createWorkflow)
			r.Get("/", s.listWorkflows)
			r.Delete("/{id}", s.deleteWorkflow)
			r.Post("/{id}/steps", s.addStep)
			r.Post("/{id}/dependencies", s.addDependency)
			r.Get("/{id}/details", s.getWorkflowDetails)
			r.Get("/{id}/execution-order", s.getExecutionOrder)
		})
	})
	return r
}
