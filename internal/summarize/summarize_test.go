package summarize

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/types"
)

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.reply != nil {
		return f.reply(prompt)
	}
	return "users struggle with flaky tooling", nil
}

func (f *fakeLLM) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLM) Close() error { return nil }

func testInput() ([]types.CleanedPost, []types.ClusterLabel) {
	posts := []types.CleanedPost{
		{ID: "p1", CleanedText: "the editor crashes constantly"},
		{ID: "p2", CleanedText: "crashes after every update"},
		{ID: "p3", CleanedText: "billing page is impossible to find"},
	}
	labels := []types.ClusterLabel{
		{PostID: "p1", Cluster: 0},
		{PostID: "p2", Cluster: 0},
		{PostID: "p3", Cluster: 2},
	}
	return posts, labels
}

func TestSummarizeClusters_OneRowPerCluster(t *testing.T) {
	posts, labels := testInput()
	client := &fakeLLM{}
	s := New(client, 2, logging.NewNop())

	summaries, err := s.SummarizeClusters(context.Background(), posts, labels, 3)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, 0, summaries[0].ClusterID)
	assert.Equal(t, 2, summaries[0].NumPosts)
	assert.Equal(t, "users struggle with flaky tooling", summaries[0].Summary)

	// Cluster 1 has no posts: sentinel row, no LLM call.
	assert.Equal(t, 1, summaries[1].ClusterID)
	assert.Equal(t, 0, summaries[1].NumPosts)
	assert.Equal(t, types.EmptyClusterSummary, summaries[1].Summary)

	assert.Equal(t, 2, summaries[2].ClusterID)
	assert.Equal(t, 1, summaries[2].NumPosts)

	assert.Len(t, client.prompts, 2, "empty cluster must not reach the LLM")
}

func TestSummarizeClusters_PromptCarriesClusterPosts(t *testing.T) {
	posts, labels := testInput()
	client := &fakeLLM{}
	s := New(client, 1, logging.NewNop())

	_, err := s.SummarizeClusters(context.Background(), posts, labels, 3)
	require.NoError(t, err)

	var crashPrompt string
	for _, p := range client.prompts {
		if strings.Contains(p, "the editor crashes constantly") {
			crashPrompt = p
		}
	}
	require.NotEmpty(t, crashPrompt)
	assert.Contains(t, crashPrompt, "crashes after every update")
	assert.NotContains(t, crashPrompt, "billing page", "posts from other clusters must not leak in")
	assert.Contains(t, crashPrompt, "pain point summary")
}

func TestSummarizeClusters_LLMFailurePropagates(t *testing.T) {
	posts, labels := testInput()
	boom := errors.New("quota exceeded")
	client := &fakeLLM{reply: func(string) (string, error) { return "", boom }}
	s := New(client, 2, logging.NewNop())

	_, err := s.SummarizeClusters(context.Background(), posts, labels, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSummarizeClusters_IgnoresOutOfRangeLabels(t *testing.T) {
	posts := []types.CleanedPost{{ID: "p1", CleanedText: "text"}}
	labels := []types.ClusterLabel{{PostID: "p1", Cluster: types.UnassignedCluster}}
	client := &fakeLLM{}
	s := New(client, 1, logging.NewNop())

	summaries, err := s.SummarizeClusters(context.Background(), posts, labels, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, row := range summaries {
		assert.Equal(t, types.EmptyClusterSummary, row.Summary)
	}
	assert.Empty(t, client.prompts)
}

func TestSummaryCodec_RoundTrip(t *testing.T) {
	rows := []types.ClusterSummary{
		{ClusterID: 0, NumPosts: 12, Summary: "onboarding is confusing, docs lag behind releases"},
		{ClusterID: 1, NumPosts: 0, Summary: types.EmptyClusterSummary},
	}

	var buf bytes.Buffer
	require.NoError(t, SummaryCodec{}.Encode(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "cluster_id,num_posts,pain_point_summary"))

	decoded, err := SummaryCodec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, decoded)
}

func TestSummaryCodec_RejectsBadHeader(t *testing.T) {
	_, err := SummaryCodec{}.Decode(bytes.NewBufferString("id,count,text\n0,1,x\n"))
	assert.Error(t, err)
}
