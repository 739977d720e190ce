// Package diagnostics computes cluster quality metrics over an embedding
// matrix and its labels: mean silhouette, average intra-cluster distance,
// average inter-centroid distance, and their ratio.
package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/personaprd/personaprd/internal/types"
)

// Compute derives quality metrics for one clustering. embeddings and labels
// must be aligned; unassigned records (negative label) are ignored. Metrics
// that need at least two populated clusters come back as zero rather than an
// error so a degenerate run still produces an artifact.
func Compute(embeddings [][]float64, labels []int) (types.Diagnostics, error) {
	if len(embeddings) != len(labels) {
		return types.Diagnostics{}, fmt.Errorf("got %d labels for %d embeddings", len(labels), len(embeddings))
	}

	members := make(map[int][][]float64)
	for i, label := range labels {
		if label < 0 {
			continue
		}
		members[label] = append(members[label], embeddings[i])
	}

	d := types.Diagnostics{NumClusters: len(members)}
	if len(members) == 0 {
		return d, nil
	}

	centroids := make(map[int][]float64, len(members))
	for label, rows := range members {
		centroids[label] = centroid(rows)
	}

	d.SilhouetteScore = meanSilhouette(embeddings, labels, members)
	d.AvgIntraClusterDistance = avgIntraDistance(members)
	d.AvgInterClusterDistance = avgInterDistance(centroids)
	if d.AvgInterClusterDistance > 0 {
		d.IntraInterRatio = d.AvgIntraClusterDistance / d.AvgInterClusterDistance
	}
	return d, nil
}

func centroid(rows [][]float64) []float64 {
	c := make([]float64, len(rows[0]))
	for _, row := range rows {
		floats.Add(c, row)
	}
	floats.Scale(1/float64(len(rows)), c)
	return c
}

// meanSilhouette averages the silhouette coefficient over all assigned
// points. Points in singleton clusters score zero, matching the usual
// convention.
func meanSilhouette(embeddings [][]float64, labels []int, members map[int][][]float64) float64 {
	if len(members) < 2 {
		return 0
	}

	var total float64
	var count int
	for i, label := range labels {
		if label < 0 {
			continue
		}
		count++
		own := members[label]
		if len(own) < 2 {
			continue // s(i) = 0 for singletons
		}

		a := sumDistance(embeddings[i], own) / float64(len(own)-1)

		b := math.Inf(1)
		for other, rows := range members {
			if other == label {
				continue
			}
			mean := sumDistance(embeddings[i], rows) / float64(len(rows))
			if mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func sumDistance(point []float64, rows [][]float64) float64 {
	var sum float64
	for _, row := range rows {
		sum += floats.Distance(point, row, 2)
	}
	return sum
}

// avgIntraDistance is the mean pairwise distance within a cluster, averaged
// over clusters with at least two members.
func avgIntraDistance(members map[int][][]float64) float64 {
	var total float64
	var clusters int
	for _, rows := range members {
		if len(rows) < 2 {
			continue
		}
		var sum float64
		var pairs int
		for i := 0; i < len(rows); i++ {
			for j := i + 1; j < len(rows); j++ {
				sum += floats.Distance(rows[i], rows[j], 2)
				pairs++
			}
		}
		total += sum / float64(pairs)
		clusters++
	}
	if clusters == 0 {
		return 0
	}
	return total / float64(clusters)
}

// avgInterDistance is the mean pairwise distance between cluster centroids.
func avgInterDistance(centroids map[int][]float64) float64 {
	if len(centroids) < 2 {
		return 0
	}
	points := make([][]float64, 0, len(centroids))
	for _, c := range centroids {
		points = append(points, c)
	}
	var sum float64
	var pairs int
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			sum += floats.Distance(points[i], points[j], 2)
			pairs++
		}
	}
	return sum / float64(pairs)
}
