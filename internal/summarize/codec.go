package summarize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/personaprd/personaprd/internal/types"
)

// SummaryCodec persists cluster summaries as CSV with a
// cluster_id,num_posts,pain_point_summary header.
type SummaryCodec struct{}

func (SummaryCodec) Encode(w io.Writer, summaries []types.ClusterSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cluster_id", "num_posts", "pain_point_summary"}); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write([]string{strconv.Itoa(s.ClusterID), strconv.Itoa(s.NumPosts), s.Summary}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (SummaryCodec) Decode(r io.Reader) ([]types.ClusterSummary, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := records[0]
	if len(header) != 3 || header[0] != "cluster_id" || header[1] != "num_posts" || header[2] != "pain_point_summary" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	summaries := make([]types.ClusterSummary, 0, len(records)-1)
	for _, rec := range records[1:] {
		clusterID, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("bad cluster_id %q: %w", rec[0], err)
		}
		numPosts, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("bad num_posts %q: %w", rec[1], err)
		}
		summaries = append(summaries, types.ClusterSummary{ClusterID: clusterID, NumPosts: numPosts, Summary: rec[2]})
	}
	return summaries, nil
}
