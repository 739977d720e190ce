// Package types holds the shared domain records passed between pipeline
// stages and the HTTP layer.
package types

// Post is one raw record from a collection file.
type Post struct {
	ID           string `json:"post_id"`
	Title        string `json:"title"`
	Selftext     string `json:"selftext"`
	CombinedText string `json:"combined_text"`
}

// CleanedPost is a Post with its normalized text, persisted per run for
// inspection.
type CleanedPost struct {
	ID           string `json:"post_id"`
	Title        string `json:"title"`
	Selftext     string `json:"selftext"`
	CombinedText string `json:"combined_text"`
	CleanedText  string `json:"cleaned_text"`
}

// UnassignedCluster is the sentinel label for records the clustering
// artifact does not cover.
const UnassignedCluster = -1

// ClusterLabel assigns one post to one cluster. Labels are keyed by post
// identity, not position, so the artifact stays valid if upstream records
// are reordered.
type ClusterLabel struct {
	PostID  string `json:"post_id"`
	Cluster int    `json:"cluster"`
}

// Diagnostics summarizes cluster separation quality for one run.
type Diagnostics struct {
	SilhouetteScore         float64 `json:"silhouette_score"`
	AvgIntraClusterDistance float64 `json:"avg_intra_cluster_distance"`
	AvgInterClusterDistance float64 `json:"avg_inter_cluster_distance"`
	IntraInterRatio         float64 `json:"intra_inter_ratio"`
	NumClusters             int     `json:"num_clusters"`
}

// EmptyClusterSummary is the fixed summary text recorded for clusters with
// no posts. Empty clusters get a row, never an omission.
const EmptyClusterSummary = "No posts in this cluster."

// ClusterSummary is one row of the summary table: the LLM pain-point
// summary for a cluster and the number of posts behind it.
type ClusterSummary struct {
	ClusterID int    `json:"cluster_id"`
	NumPosts  int    `json:"num_posts"`
	Summary   string `json:"pain_point_summary"`
}
