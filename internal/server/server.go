// Package server provides the HTTP REST API: dispatching pipeline and PRD
// runs, polling their tasks, and browsing personas, collections and
// generated artifacts.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/personaprd/personaprd/internal/dataset"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/pipeline"
	"github.com/personaprd/personaprd/internal/prd"
	"github.com/personaprd/personaprd/internal/tasks"
)

// Config holds server configuration.
type Config struct {
	Port         int
	ProcessedDir string
}

// Deps are the domain services the HTTP layer fronts.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	PRD          *prd.Generator
	Loader       *dataset.Loader
	Log          *logging.Logger
}

// Server represents the HTTP server.
type Server struct {
	httpServer   *http.Server
	orch         *pipeline.Orchestrator
	prdGen       *prd.Generator
	loader       *dataset.Loader
	processedDir string

	// Two registries, two disjoint id namespaces: a pipeline task id can
	// never be polled as a PRD task or vice versa.
	pipelineTasks *tasks.Registry[*pipeline.Result]
	prdTasks      *tasks.Registry[*prd.Result]

	validate *validator.Validate
	log      *logging.Logger
}

// New creates a new server instance.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		orch:          deps.Orchestrator,
		prdGen:        deps.PRD,
		loader:        deps.Loader,
		processedDir:  cfg.ProcessedDir,
		pipelineTasks: tasks.NewRegistry[*pipeline.Result]("pipeline", deps.Log),
		prdTasks:      tasks.NewRegistry[*prd.Result]("prd", deps.Log),
		validate:      validator.New(),
		log:           deps.Log.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /run_pipeline", s.handleRunPipeline)
	mux.HandleFunc("GET /pipeline_status/{task_id}", s.handlePipelineStatus)
	mux.HandleFunc("POST /generate_prd", s.handleGeneratePRD)
	mux.HandleFunc("GET /prd_status/{prd_task_id}", s.handlePRDStatus)
	mux.HandleFunc("GET /available_personas", s.handleAvailablePersonas)
	mux.HandleFunc("GET /available_collections/{persona}", s.handleAvailableCollections)
	mux.HandleFunc("GET /cluster_summaries/{persona}/{collection}", s.handleClusterSummaries)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Generated artifacts (plots, PRDs) are served straight from the
	// processed-data tree.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.ProcessedDir))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler stack, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path,
			"remote", r.RemoteAddr, "duration", time.Since(start).String())
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
