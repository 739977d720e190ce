package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

func samplePosts() ([]types.CleanedPost, [][]float64, []types.ClusterLabel) {
	posts := []types.CleanedPost{
		{ID: "p1", Title: "cursor keeps crashing"},
		{ID: "p2", Title: "context window too small"},
		{ID: "p3", Title: "love the agent mode"},
		{ID: "p4", Title: "billing is confusing"},
	}
	embeddings := [][]float64{
		{0, 0, 1}, {0.1, 0.2, 1.1},
		{10, 10, 9}, {10.2, 9.8, 9.1},
	}
	labels := []types.ClusterLabel{
		{PostID: "p1", Cluster: 0},
		{PostID: "p2", Cluster: 0},
		{PostID: "p3", Cluster: 1},
		{PostID: "p4", Cluster: 1},
	}
	return posts, embeddings, labels
}

func TestRender_WritesHTMLWithClusterSeries(t *testing.T) {
	posts, embeddings, labels := samplePosts()
	path := filepath.Join(t.TempDir(), "cluster_visualization.html")

	r := NewRenderer(logging.NewNop())
	require.NoError(t, r.Render(path, posts, embeddings, labels))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Cluster 1")
	assert.Contains(t, html, "Cluster 2")
	assert.Contains(t, html, "p1: cursor keeps crashing")
	assert.Contains(t, html, "Post Clusters")
}

func TestRender_UnlabeledPostsGetUnassignedSeries(t *testing.T) {
	posts, embeddings, labels := samplePosts()
	labels = labels[:3] // p4 has no label row

	path := filepath.Join(t.TempDir(), "plot.html")
	r := NewRenderer(logging.NewNop())
	require.NoError(t, r.Render(path, posts, embeddings, labels))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Unassigned")
}

func TestRender_EmptyInputFails(t *testing.T) {
	r := NewRenderer(logging.NewNop())
	err := r.Render(filepath.Join(t.TempDir(), "plot.html"), nil, nil, nil)
	assert.Error(t, err)
}

func TestRender_MismatchedInputFails(t *testing.T) {
	posts, embeddings, labels := samplePosts()
	r := NewRenderer(logging.NewNop())
	err := r.Render(filepath.Join(t.TempDir(), "plot.html"), posts[:2], embeddings, labels)
	assert.Error(t, err)
}
