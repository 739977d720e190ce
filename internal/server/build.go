package server

import (
	"context"
	"fmt"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/clustering"
	"github.com/personaprd/personaprd/internal/config"
	"github.com/personaprd/personaprd/internal/dataset"
	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/pipeline"
	"github.com/personaprd/personaprd/internal/prd"
	"github.com/personaprd/personaprd/internal/preprocess"
	"github.com/personaprd/personaprd/internal/summarize"
	"github.com/personaprd/personaprd/internal/visualization"
)

// Build wires the full service stack from configuration: Gemini client,
// stage implementations, orchestrator, PRD generator and the HTTP server on
// top. The caller owns the returned server's lifecycle.
func Build(ctx context.Context, cfg config.Config, log *logging.Logger) (*Server, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set GOOGLE_API_KEY or api_key in the config file")
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	resolver := artifact.NewResolver(cfg.ProcessedDir())
	loader := dataset.NewLoader(cfg.RawDir(), log)

	orch := pipeline.New(pipeline.Deps{
		Resolver:   resolver,
		Loader:     loader,
		Clean:      preprocess.Clean,
		Embedder:   client,
		Clusterer:  clustering.New(cfg.Clusters, cfg.Components, log),
		Visualizer: visualization.NewRenderer(log),
		Summarizer: summarize.New(client, cfg.SummaryWorkers, log),
		Clusters:   cfg.Clusters,
		Log:        log,
	}, clustering.LabelCodec{}, summarize.SummaryCodec{})

	gen := prd.NewGenerator(client, resolver, orch.Summaries(), log)

	return New(Config{Port: cfg.Port, ProcessedDir: cfg.ProcessedDir()}, Deps{
		Orchestrator: orch,
		PRD:          gen,
		Loader:       loader,
		Log:          log,
	}), nil
}
