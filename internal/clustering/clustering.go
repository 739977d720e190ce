// Package clustering partitions post embeddings into K clusters. Embeddings
// are standardized and reduced with PCA before k-means, mirroring the
// dimensionality reduction the upstream notebooks used. Labels are keyed by
// post id so the persisted artifact survives upstream reordering.
package clustering

import (
	"context"
	"fmt"
	"math"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

// Clusterer runs PCA + k-means over a set of embeddings.
type Clusterer struct {
	k          int
	components int
	log        *logging.Logger
}

// New returns a clusterer producing k clusters after reducing embeddings to
// at most the given number of principal components.
func New(k, components int, log *logging.Logger) *Clusterer {
	return &Clusterer{k: k, components: components, log: log.With("component", "clustering")}
}

// observation carries a post id through the k-means partition so labels can
// be recovered by identity rather than position.
type observation struct {
	id     string
	coords clusters.Coordinates
}

func (o observation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o observation) Distance(p clusters.Coordinates) float64 {
	return o.coords.Distance(p)
}

// Assign partitions the embeddings into clusters and returns one label per
// input id, in input order. ids and embeddings must be aligned. With fewer
// posts than k the cluster count is clamped; empty input yields no labels.
func (c *Clusterer) Assign(ctx context.Context, ids []string, embeddings [][]float64) ([]types.ClusterLabel, error) {
	if len(ids) != len(embeddings) {
		return nil, fmt.Errorf("got %d ids for %d embeddings", len(ids), len(embeddings))
	}
	if len(ids) == 0 {
		return []types.ClusterLabel{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reduced, err := ProjectPCA(Standardize(embeddings), c.components)
	if err != nil {
		return nil, fmt.Errorf("reducing embeddings: %w", err)
	}

	obs := make(clusters.Observations, len(reduced))
	for i, row := range reduced {
		obs[i] = observation{id: ids[i], coords: clusters.Coordinates(row)}
	}

	k := min(c.k, len(obs))
	c.log.Info("partitioning embeddings", "posts", len(obs), "clusters", k, "components", len(reduced[0]))

	km := kmeans.New()
	partition, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("k-means partition: %w", err)
	}

	byID := make(map[string]int, len(obs))
	for clusterIdx, cl := range partition {
		for _, o := range cl.Observations {
			byID[o.(observation).id] = clusterIdx
		}
	}

	labels := make([]types.ClusterLabel, len(ids))
	for i, id := range ids {
		cluster, ok := byID[id]
		if !ok {
			cluster = types.UnassignedCluster
		}
		labels[i] = types.ClusterLabel{PostID: id, Cluster: cluster}
	}
	return labels, nil
}

// Standardize scales each dimension to zero mean and unit variance.
// Constant dimensions are left centered with unit divisor.
func Standardize(embeddings [][]float64) [][]float64 {
	if len(embeddings) == 0 {
		return nil
	}
	dims := len(embeddings[0])
	col := make([]float64, len(embeddings))
	means := make([]float64, dims)
	stds := make([]float64, dims)
	for d := 0; d < dims; d++ {
		for i, row := range embeddings {
			col[i] = row[d]
		}
		means[d] = stat.Mean(col, nil)
		stds[d] = stat.StdDev(col, nil)
		if stds[d] == 0 || math.IsNaN(stds[d]) {
			stds[d] = 1
		}
	}
	out := make([][]float64, len(embeddings))
	for i, row := range embeddings {
		scaled := make([]float64, dims)
		for d, v := range row {
			scaled[d] = (v - means[d]) / stds[d]
		}
		out[i] = scaled
	}
	return out
}

// ProjectPCA projects rows onto their leading principal components. The
// component count is clamped to what the data supports.
func ProjectPCA(rows [][]float64, components int) ([][]float64, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("no rows to project")
	}
	dims := len(rows[0])
	if components >= dims {
		// Nothing to reduce.
		return rows, nil
	}

	flat := make([]float64, 0, n*dims)
	for _, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("ragged embedding matrix: row has %d dims, want %d", len(row), dims)
		}
		flat = append(flat, row...)
	}
	X := mat.NewDense(n, dims, flat)

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, fmt.Errorf("principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, available := vecs.Dims()
	comps := min(components, available)

	var proj mat.Dense
	proj.Mul(X, vecs.Slice(0, dims, 0, comps))

	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, comps)
		copy(row, proj.RawRowView(i))
		out[i] = row
	}
	return out, nil
}
