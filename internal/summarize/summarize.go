// Package summarize turns each cluster's posts into a short pain-point
// summary via the LLM. Summaries are regenerated on every pipeline run;
// they are persisted for the PRD stage but never reused as a cache.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

const summaryPromptTemplate = `
You are an expert Product Manager AI assistant. Summarise the following Reddit posts into a concise pain point summary.

Posts:
%s

Instructions:
- Identify the core pain point(s) expressed in these posts.
- Summarise clearly in 2-3 sentences.
- Do NOT mention Reddit or posts. Only output the pain point summary.

Summary:
`

// Summarizer produces one pain-point summary per cluster.
type Summarizer struct {
	client  llm.Client
	workers int
	log     *logging.Logger
}

// New returns a summarizer that runs at most workers LLM calls in parallel.
func New(client llm.Client, workers int, log *logging.Logger) *Summarizer {
	if workers < 1 {
		workers = 1
	}
	return &Summarizer{client: client, workers: workers, log: log.With("component", "summarize")}
}

// SummarizeClusters generates one summary row per cluster id in [0, numClusters),
// in cluster order. Posts are grouped by the labels, joined by post id. Empty
// clusters get a fixed sentinel row rather than an LLM call, so the table
// always has numClusters rows.
func (s *Summarizer) SummarizeClusters(ctx context.Context, posts []types.CleanedPost, labels []types.ClusterLabel, numClusters int) ([]types.ClusterSummary, error) {
	if numClusters < 0 {
		return nil, fmt.Errorf("invalid cluster count %d", numClusters)
	}

	clusterOf := make(map[string]int, len(labels))
	for _, l := range labels {
		clusterOf[l.PostID] = l.Cluster
	}

	texts := make(map[int][]string)
	for _, post := range posts {
		cluster, ok := clusterOf[post.ID]
		if !ok || cluster < 0 || cluster >= numClusters {
			continue
		}
		texts[cluster] = append(texts[cluster], post.CleanedText)
	}

	// Each goroutine writes its own slot, so no locking is needed.
	summaries := make([]types.ClusterSummary, numClusters)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for clusterID := 0; clusterID < numClusters; clusterID++ {
		clusterTexts := texts[clusterID]
		if len(clusterTexts) == 0 {
			summaries[clusterID] = types.ClusterSummary{
				ClusterID: clusterID,
				NumPosts:  0,
				Summary:   types.EmptyClusterSummary,
			}
			continue
		}

		g.Go(func() error {
			s.log.Info("summarizing cluster", "cluster", clusterID+1, "posts", len(clusterTexts))
			prompt := fmt.Sprintf(summaryPromptTemplate, strings.Join(clusterTexts, "\n"))
			text, err := s.client.GenerateContent(gctx, prompt, llm.TierLite)
			if err != nil {
				return fmt.Errorf("summarizing cluster %d: %w", clusterID, err)
			}
			summaries[clusterID] = types.ClusterSummary{
				ClusterID: clusterID,
				NumPosts:  len(clusterTexts),
				Summary:   strings.TrimSpace(text),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}
