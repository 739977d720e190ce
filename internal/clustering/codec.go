package clustering

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/personaprd/personaprd/internal/types"
)

// LabelCodec persists cluster labels as CSV with a post_id,cluster header.
type LabelCodec struct{}

func (LabelCodec) Encode(w io.Writer, labels []types.ClusterLabel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"post_id", "cluster"}); err != nil {
		return err
	}
	for _, l := range labels {
		if err := cw.Write([]string{l.PostID, strconv.Itoa(l.Cluster)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (LabelCodec) Decode(r io.Reader) ([]types.ClusterLabel, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := records[0]
	if len(header) != 2 || header[0] != "post_id" || header[1] != "cluster" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	labels := make([]types.ClusterLabel, 0, len(records)-1)
	for _, rec := range records[1:] {
		cluster, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("bad cluster value %q: %w", rec[1], err)
		}
		labels = append(labels, types.ClusterLabel{PostID: rec[0], Cluster: cluster})
	}
	return labels, nil
}
