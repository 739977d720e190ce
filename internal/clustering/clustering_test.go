package clustering

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

// twoBlobs returns two well-separated groups of points in 4 dimensions.
func twoBlobs(perBlob int) ([]string, [][]float64) {
	ids := make([]string, 0, perBlob*2)
	embeddings := make([][]float64, 0, perBlob*2)
	for i := 0; i < perBlob; i++ {
		jitter := float64(i) * 0.01
		ids = append(ids, fmt.Sprintf("low%d", i))
		embeddings = append(embeddings, []float64{jitter, jitter, 0.1, 0})
		ids = append(ids, fmt.Sprintf("high%d", i))
		embeddings = append(embeddings, []float64{10 + jitter, 10 + jitter, 9.9, 10})
	}
	return ids, embeddings
}

func TestAssign_SeparatesDistinctGroups(t *testing.T) {
	ids, embeddings := twoBlobs(20)
	c := New(2, 3, logging.NewNop())

	labels, err := c.Assign(context.Background(), ids, embeddings)
	require.NoError(t, err)
	require.Len(t, labels, len(ids))

	byID := make(map[string]int, len(labels))
	for i, l := range labels {
		assert.Equal(t, ids[i], l.PostID, "labels must be returned in input order")
		assert.GreaterOrEqual(t, l.Cluster, 0)
		assert.Less(t, l.Cluster, 2)
		byID[l.PostID] = l.Cluster
	}

	// Every low point shares a cluster, every high point shares the other.
	assert.Equal(t, byID["low0"], byID["low19"])
	assert.Equal(t, byID["high0"], byID["high19"])
	assert.NotEqual(t, byID["low0"], byID["high0"])
}

func TestAssign_ClampsClusterCountToPosts(t *testing.T) {
	ids := []string{"a", "b", "c"}
	embeddings := [][]float64{{0, 0}, {5, 5}, {10, 10}}
	c := New(10, 10, logging.NewNop())

	labels, err := c.Assign(context.Background(), ids, embeddings)
	require.NoError(t, err)
	require.Len(t, labels, 3)
	for _, l := range labels {
		assert.GreaterOrEqual(t, l.Cluster, 0)
		assert.Less(t, l.Cluster, 3)
	}
}

func TestAssign_EmptyInput(t *testing.T) {
	c := New(10, 10, logging.NewNop())
	labels, err := c.Assign(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestAssign_MismatchedInput(t *testing.T) {
	c := New(2, 2, logging.NewNop())
	_, err := c.Assign(context.Background(), []string{"a"}, [][]float64{{0}, {1}})
	assert.Error(t, err)
}

func TestStandardize(t *testing.T) {
	rows := [][]float64{{1, 100, 7}, {2, 200, 7}, {3, 300, 7}}
	out := Standardize(rows)
	require.Len(t, out, 3)

	for d := 0; d < 3; d++ {
		var sum float64
		for _, row := range out {
			sum += row[d]
		}
		assert.InDelta(t, 0, sum/3, 1e-9, "dimension %d should be centered", d)
	}
	// Constant dimension stays zero instead of dividing by zero.
	for _, row := range out {
		assert.Equal(t, 0.0, row[2])
		assert.False(t, math.IsNaN(row[0]))
	}
}

func TestProjectPCA_ReducesDimensions(t *testing.T) {
	rows := [][]float64{
		{1, 1, 0.1, 0.2},
		{2, 2, 0.1, 0.1},
		{3, 3, 0.2, 0.1},
		{4, 4, 0.1, 0.2},
		{5, 5, 0.2, 0.2},
	}
	out, err := ProjectPCA(rows, 2)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, row := range out {
		assert.Len(t, row, 2)
	}
}

func TestProjectPCA_NoReductionWhenComponentsCoverDims(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	out, err := ProjectPCA(rows, 5)
	require.NoError(t, err)
	assert.Equal(t, rows, out)
}

func TestLabelCodec_RoundTrip(t *testing.T) {
	labels := []types.ClusterLabel{
		{PostID: "p1", Cluster: 0},
		{PostID: "p2", Cluster: 3},
		{PostID: "p3", Cluster: types.UnassignedCluster},
	}

	var buf bytes.Buffer
	require.NoError(t, LabelCodec{}.Encode(&buf, labels))
	assert.Contains(t, buf.String(), "post_id,cluster")

	decoded, err := LabelCodec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, labels, decoded)
}

func TestLabelCodec_RejectsBadHeader(t *testing.T) {
	_, err := LabelCodec{}.Decode(bytes.NewBufferString("id,group\np1,0\n"))
	assert.Error(t, err)
}
