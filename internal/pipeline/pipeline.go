// Package pipeline orchestrates the full analysis run for one
// persona/collection: load, clean, embed, cluster, diagnose, visualize,
// summarize. Intermediate artifacts are memoized per key; cleaning and
// summarization deliberately run fresh every time.
package pipeline

import (
	"context"
	"fmt"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/dataset"
	"github.com/personaprd/personaprd/internal/diagnostics"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

// Artifact file names inside each key directory.
const (
	cleanedFile     = "cleaned_posts.json"
	embeddingsFile  = "embeddings.json"
	labelsFile      = "cluster_labels.csv"
	diagnosticsFile = "cluster_diagnostics.json"
	vizFile         = "cluster_visualization.html"
	summariesFile   = "pain_point_summaries.csv"
)

// EmbeddingRecord pairs one post with its embedding vector. Vectors are
// persisted with their post id so the cached artifact joins to posts by
// identity rather than position.
type EmbeddingRecord struct {
	PostID string    `json:"post_id"`
	Vector []float64 `json:"vector"`
}

// Embedder maps texts to vectors, order-preserving.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Clusterer assigns each post to a cluster.
type Clusterer interface {
	Assign(ctx context.Context, ids []string, embeddings [][]float64) ([]types.ClusterLabel, error)
}

// Visualizer renders the cluster scatter plot document at path.
type Visualizer interface {
	Render(path string, posts []types.CleanedPost, embeddings [][]float64, labels []types.ClusterLabel) error
}

// Summarizer produces the per-cluster pain-point summary table.
type Summarizer interface {
	SummarizeClusters(ctx context.Context, posts []types.CleanedPost, labels []types.ClusterLabel, numClusters int) ([]types.ClusterSummary, error)
}

// Deps are the stage implementations an Orchestrator runs.
type Deps struct {
	Resolver   *artifact.Resolver
	Loader     *dataset.Loader
	Clean      func(string) string
	Embedder   Embedder
	Clusterer  Clusterer
	Visualizer Visualizer
	Summarizer Summarizer
	Clusters   int
	Log        *logging.Logger
}

// Result reports what one pipeline run produced.
type Result struct {
	Persona           string            `json:"persona"`
	Collection        string            `json:"collection"`
	OutputDir         string            `json:"output_dir"`
	PostCount         int               `json:"post_count"`
	ClusterCount      int               `json:"cluster_count"`
	Diagnostics       types.Diagnostics `json:"diagnostics"`
	VisualizationPath string            `json:"visualization_path"`
	SummaryCount      int               `json:"summary_count"`
}

// Orchestrator runs the staged pipeline with per-key memoization.
type Orchestrator struct {
	deps  Deps
	locks *artifact.KeyMutex

	cleaned     *artifact.Store[[]types.CleanedPost]
	embeddings  *artifact.Store[[]EmbeddingRecord]
	labels      *artifact.Store[[]types.ClusterLabel]
	diagnostics *artifact.Store[types.Diagnostics]
	viz         *artifact.FileStore
	summaries   *artifact.Store[[]types.ClusterSummary]
}

// New builds an orchestrator and its per-stage stores.
func New(deps Deps, labelCodec artifact.Codec[[]types.ClusterLabel], summaryCodec artifact.Codec[[]types.ClusterSummary]) *Orchestrator {
	log := deps.Log.With("component", "pipeline")
	deps.Log = log
	r := deps.Resolver
	return &Orchestrator{
		deps:        deps,
		locks:       artifact.NewKeyMutex(),
		cleaned:     artifact.NewStore[[]types.CleanedPost]("cleaning", cleanedFile, r, artifact.JSONCodec[[]types.CleanedPost]{}, log),
		embeddings:  artifact.NewStore[[]EmbeddingRecord]("embedding", embeddingsFile, r, artifact.JSONCodec[[]EmbeddingRecord]{}, log),
		labels:      artifact.NewStore[[]types.ClusterLabel]("clustering", labelsFile, r, labelCodec, log),
		diagnostics: artifact.NewStore[types.Diagnostics]("diagnostics", diagnosticsFile, r, artifact.JSONCodec[types.Diagnostics]{}, log),
		viz:         artifact.NewFileStore("visualization", vizFile, r, log),
		summaries:   artifact.NewStore[[]types.ClusterSummary]("summarization", summariesFile, r, summaryCodec, log),
	}
}

// Summaries exposes the summary store shared with the PRD generator and the
// HTTP layer.
func (o *Orchestrator) Summaries() *artifact.Store[[]types.ClusterSummary] {
	return o.summaries
}

// Run executes the pipeline for one persona/collection. Runs with the same
// key are serialized in-process; distinct keys run concurrently. Cached
// stage artifacts are reused as-is, so a second run for a key that already
// completed only redoes cleaning and summarization.
func (o *Orchestrator) Run(ctx context.Context, personaKey, collection string) (*Result, error) {
	key := artifact.Key{Persona: personaKey, Collection: collection}
	unlock := o.locks.Lock(key)
	defer unlock()

	log := o.deps.Log.With("key", key.String())
	log.Info("pipeline run starting")

	posts, err := o.deps.Loader.Load(personaKey, collection)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("collection %s has no posts", collection)
	}

	// Cleaning is cheap and deterministic; it runs every time and the
	// artifact is persisted for inspection, not reused as a cache.
	cleaned := make([]types.CleanedPost, len(posts))
	for i, p := range posts {
		cleaned[i] = types.CleanedPost{
			ID:           p.ID,
			Title:        p.Title,
			Selftext:     p.Selftext,
			CombinedText: p.CombinedText,
			CleanedText:  o.deps.Clean(p.CombinedText),
		}
	}
	if err := o.cleaned.Write(key, cleaned); err != nil {
		return nil, err
	}

	records, err := o.embeddings.GetOrCompute(ctx, key, func(ctx context.Context) ([]EmbeddingRecord, error) {
		texts := make([]string, len(cleaned))
		for i, c := range cleaned {
			texts[i] = c.CleanedText
		}
		vectors, err := o.deps.Embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(cleaned) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d posts", len(vectors), len(cleaned))
		}
		out := make([]EmbeddingRecord, len(cleaned))
		for i := range cleaned {
			out[i] = EmbeddingRecord{PostID: cleaned[i].ID, Vector: vectors[i]}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(records))
	matrix := make([][]float64, len(records))
	for i, rec := range records {
		ids[i] = rec.PostID
		matrix[i] = rec.Vector
	}

	labels, err := o.labels.GetOrCompute(ctx, key, func(ctx context.Context) ([]types.ClusterLabel, error) {
		return o.deps.Clusterer.Assign(ctx, ids, matrix)
	})
	if err != nil {
		return nil, err
	}

	clusterOf := make(map[string]int, len(labels))
	for _, l := range labels {
		clusterOf[l.PostID] = l.Cluster
	}
	assigned := make([]int, len(records))
	for i, rec := range records {
		cluster, ok := clusterOf[rec.PostID]
		if !ok {
			cluster = types.UnassignedCluster
		}
		assigned[i] = cluster
	}

	diag, err := o.diagnostics.GetOrCompute(ctx, key, func(context.Context) (types.Diagnostics, error) {
		return diagnostics.Compute(matrix, assigned)
	})
	if err != nil {
		return nil, err
	}

	vizPosts := alignPosts(cleaned, records)
	vizPath, err := o.viz.GetOrRender(ctx, key, func(_ context.Context, path string) error {
		return o.deps.Visualizer.Render(path, vizPosts, matrix, labels)
	})
	if err != nil {
		return nil, err
	}

	// Summaries are regenerated every run: the LLM output is the one stage
	// whose quality improves with model updates, so it never comes from
	// cache.
	summaries, err := o.deps.Summarizer.SummarizeClusters(ctx, cleaned, labels, o.deps.Clusters)
	if err != nil {
		return nil, &artifact.ComputeError{Stage: "summarization", Cause: err}
	}
	if err := o.summaries.Write(key, summaries); err != nil {
		return nil, err
	}

	dir, err := o.deps.Resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline run finished", "posts", len(cleaned), "clusters", diag.NumClusters)

	return &Result{
		Persona:           personaKey,
		Collection:        collection,
		OutputDir:         dir,
		PostCount:         len(cleaned),
		ClusterCount:      diag.NumClusters,
		Diagnostics:       diag,
		VisualizationPath: vizPath,
		SummaryCount:      len(summaries),
	}, nil
}

// alignPosts orders cleaned posts to match the embedding records. Records
// with no matching post (a cached embedding artifact from an older export)
// keep their id so the plot still renders.
func alignPosts(cleaned []types.CleanedPost, records []EmbeddingRecord) []types.CleanedPost {
	byID := make(map[string]types.CleanedPost, len(cleaned))
	for _, c := range cleaned {
		byID[c.ID] = c
	}
	out := make([]types.CleanedPost, len(records))
	for i, rec := range records {
		if c, ok := byID[rec.PostID]; ok {
			out[i] = c
		} else {
			out[i] = types.CleanedPost{ID: rec.PostID, Title: rec.PostID}
		}
	}
	return out
}
