package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/dataset"
	"github.com/personaprd/personaprd/internal/persona"
	"github.com/personaprd/personaprd/internal/pipeline"
	"github.com/personaprd/personaprd/internal/prd"
	"github.com/personaprd/personaprd/internal/tasks"
	"github.com/personaprd/personaprd/internal/types"
)

// runPipelineRequest dispatches one pipeline run.
type runPipelineRequest struct {
	Persona       string `json:"persona" validate:"required"`
	SubredditFile string `json:"subreddit_file" validate:"required"`
}

// generatePRDRequest dispatches one PRD generation run.
type generatePRDRequest struct {
	Persona            string `json:"persona" validate:"required"`
	SubredditFile      string `json:"subreddit_file" validate:"required"`
	SelectedClusterIDs []int  `json:"selected_cluster_ids" validate:"required,min=1"`
}

// pipelineResultView is the completed-run payload with filesystem paths
// rewritten to URLs a client can fetch.
type pipelineResultView struct {
	Persona          string            `json:"persona"`
	Collection       string            `json:"collection"`
	PostCount        int               `json:"post_count"`
	ClusterCount     int               `json:"cluster_count"`
	Diagnostics      types.Diagnostics `json:"diagnostics"`
	SummaryCount     int               `json:"summary_count"`
	OutputDir        string            `json:"output_dir"`
	VisualizationURL string            `json:"visualization_url"`
}

type prdResultView struct {
	Title      string `json:"title"`
	ClusterIDs []int  `json:"cluster_ids"`
	NumPosts   int    `json:"num_posts"`
	PRDURL     string `json:"prd_url"`
}

// decodeAndValidate decodes a JSON request body and runs struct validation.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// handleRunPipeline accepts the run request and dispatches it. The response
// is always 202: the request only names a persona and collection, and all
// failures (unknown persona, missing file) surface through the task status.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runPipelineRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	taskID := s.pipelineTasks.Dispatch(func(ctx context.Context) (*pipeline.Result, error) {
		return s.orch.Run(ctx, req.Persona, req.SubredditFile)
	})

	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"message":                        "Pipeline run dispatched.",
		"task_id":                        taskID,
		"expected_output_directory_hint": s.outputDirHint(req.Persona, req.SubredditFile),
	})
}

// outputDirHint predicts where artifacts will land. The hint is advisory:
// an unknown persona yields a placeholder segment rather than an error,
// since the dispatched task will report the real failure.
func (s *Server) outputDirHint(personaKey, collection string) string {
	folder, err := persona.FolderFor(personaKey)
	if err != nil {
		folder = "unknown_persona"
	}
	return filepath.Join(s.processedDir, folder, artifact.CollectionFolder(collection))
}

// handlePipelineStatus reports the state of one dispatched run.
func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.pipelineTasks.Get(r.PathValue("task_id"))
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "unknown pipeline task id")
		return
	}

	switch rec.Status {
	case tasks.StatusCompleted:
		res := rec.Result
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"status": rec.Status,
			"result": pipelineResultView{
				Persona:          res.Persona,
				Collection:       res.Collection,
				PostCount:        res.PostCount,
				ClusterCount:     res.ClusterCount,
				Diagnostics:      res.Diagnostics,
				SummaryCount:     res.SummaryCount,
				OutputDir:        res.OutputDir,
				VisualizationURL: s.staticURL(res.VisualizationPath),
			},
		})
	case tasks.StatusFailed:
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": rec.Status, "error": rec.Err})
	default:
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": rec.Status})
	}
}

// handleGeneratePRD dispatches PRD generation for selected clusters.
func (s *Server) handleGeneratePRD(w http.ResponseWriter, r *http.Request) {
	var req generatePRDRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	taskID := s.prdTasks.Dispatch(func(ctx context.Context) (*prd.Result, error) {
		return s.prdGen.Generate(ctx, req.Persona, req.SubredditFile, req.SelectedClusterIDs)
	})

	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"message":     "PRD generation dispatched.",
		"prd_task_id": taskID,
	})
}

// handlePRDStatus reports the state of one PRD generation task.
func (s *Server) handlePRDStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.prdTasks.Get(r.PathValue("prd_task_id"))
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "unknown PRD task id")
		return
	}

	switch rec.Status {
	case tasks.StatusCompleted:
		res := rec.Result
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"status": rec.Status,
			"result": prdResultView{
				Title:      res.Title,
				ClusterIDs: res.ClusterIDs,
				NumPosts:   res.NumPosts,
				PRDURL:     s.staticURL(res.Path),
			},
		})
	case tasks.StatusFailed:
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": rec.Status, "error": rec.Err})
	default:
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": rec.Status})
	}
}

// handleAvailablePersonas lists the configured personas.
func (s *Server) handleAvailablePersonas(w http.ResponseWriter, _ *http.Request) {
	keys := persona.Keys()
	out := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, map[string]string{
			"key":          key,
			"display_name": persona.DisplayName(key),
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"personas": out})
}

// handleAvailableCollections lists the collection exports for one persona.
func (s *Server) handleAvailableCollections(w http.ResponseWriter, r *http.Request) {
	personaKey := r.PathValue("persona")
	files, err := s.loader.ListCollections(personaKey)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	out := make([]map[string]string, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]string{
			"file":          f,
			"readable_name": dataset.ReadableCollectionName(f),
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"persona": personaKey, "collections": out})
}

// handleClusterSummaries serves the persisted pain-point summary table.
func (s *Server) handleClusterSummaries(w http.ResponseWriter, r *http.Request) {
	personaKey := r.PathValue("persona")
	collection := r.PathValue("collection")
	key := artifact.Key{Persona: personaKey, Collection: collection}

	rows, found, err := s.orch.Summaries().Load(key)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if !found {
		s.errorResponse(w, http.StatusNotFound,
			"no pain point summaries for this persona/collection; run the pipeline first")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"persona":              personaKey,
		"persona_display_name": persona.DisplayName(personaKey),
		"collection":           collection,
		"summaries":            rows,
	})
}

// staticURL maps an artifact path under the processed-data root to its
// /static URL. Paths outside the root come back unchanged.
func (s *Server) staticURL(path string) string {
	rel, err := filepath.Rel(s.processedDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return "/static/" + filepath.ToSlash(rel)
}
