// Package visualization renders the cluster scatter plot artifact: posts
// projected to two principal components, one series per cluster, written as
// a self-contained HTML page.
package visualization

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/personaprd/personaprd/internal/clustering"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

// titleMaxLen caps how much of a post title appears in a tooltip.
const titleMaxLen = 80

// Renderer draws the 2D cluster scatter plot.
type Renderer struct {
	log *logging.Logger
}

func NewRenderer(log *logging.Logger) *Renderer {
	return &Renderer{log: log.With("component", "visualization")}
}

// Render projects embeddings to two components and writes the scatter plot
// to path. posts and embeddings must be aligned; cluster membership comes
// from labels, joined by post id. Unlabeled posts fall into an "Unassigned"
// series.
func (r *Renderer) Render(path string, posts []types.CleanedPost, embeddings [][]float64, labels []types.ClusterLabel) error {
	if len(posts) != len(embeddings) {
		return fmt.Errorf("got %d posts for %d embeddings", len(posts), len(embeddings))
	}
	if len(posts) == 0 {
		return fmt.Errorf("nothing to plot")
	}

	projected, err := clustering.ProjectPCA(clustering.Standardize(embeddings), 2)
	if err != nil {
		return fmt.Errorf("projecting embeddings to 2D: %w", err)
	}

	clusterOf := make(map[string]int, len(labels))
	for _, l := range labels {
		clusterOf[l.PostID] = l.Cluster
	}

	series := make(map[int][]opts.ScatterData)
	for i, post := range posts {
		cluster, ok := clusterOf[post.ID]
		if !ok {
			cluster = types.UnassignedCluster
		}
		title := post.Title
		if len(title) > titleMaxLen {
			title = title[:titleMaxLen] + "…"
		}
		series[cluster] = append(series[cluster], opts.ScatterData{
			Name:       fmt.Sprintf("%s: %s", post.ID, title),
			Value:      []interface{}{projected[i][0], projected[i][1]},
			SymbolSize: 8,
		})
	}

	clusterIDs := make([]int, 0, len(series))
	for id := range series {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Cluster Visualization",
			Width:     "1200px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Post Clusters (PCA projection)",
			Subtitle: fmt.Sprintf("%d posts, %d clusters", len(posts), len(clusterIDs)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item", Formatter: "{a}<br/>{b}"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "PC 1", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PC 2", Type: "value"}),
	)

	for _, id := range clusterIDs {
		name := fmt.Sprintf("Cluster %d", id+1)
		if id == types.UnassignedCluster {
			name = "Unassigned"
		}
		scatter.AddSeries(name, series[id])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}
	if err := scatter.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering plot: %w", err)
	}
	r.log.Info("rendered cluster visualization", "path", path, "posts", len(posts), "clusters", len(clusterIDs))
	return f.Close()
}
