package prd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/persona"
	"github.com/personaprd/personaprd/internal/summarize"
	"github.com/personaprd/personaprd/internal/types"
)

const draftReply = `**PRD Draft: Crash-Free Editor Experience**

**Problem Summary:**
Users lose work to frequent editor crashes.

**Suggested MVP Features:**
- Autosave restores unsaved buffers after a crash
- Crash reporter surfaces the failing extension
`

type fakeLLM struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLM) Close() error { return nil }

func newTestGenerator(t *testing.T, client llm.Client) (*Generator, *artifact.Store[[]types.ClusterSummary], artifact.Key) {
	t.Helper()
	resolver := artifact.NewResolver(t.TempDir())
	store := artifact.NewStore[[]types.ClusterSummary](
		"summarization", "pain_point_summaries.csv", resolver, summarize.SummaryCodec{}, logging.NewNop())
	g := NewGenerator(client, resolver, store, logging.NewNop())
	g.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }
	return g, store, artifact.Key{Persona: "vibecoding", Collection: "reddit_cursor_hot_500.json"}
}

func seedSummaries(t *testing.T, store *artifact.Store[[]types.ClusterSummary], key artifact.Key) {
	t.Helper()
	require.NoError(t, store.Write(key, []types.ClusterSummary{
		{ClusterID: 0, NumPosts: 12, Summary: "editor crashes destroy unsaved work"},
		{ClusterID: 1, NumPosts: 0, Summary: types.EmptyClusterSummary},
		{ClusterID: 2, NumPosts: 7, Summary: "billing tiers are opaque"},
	}))
}

func TestGenerate_WritesPDFAndReturnsMetadata(t *testing.T) {
	client := &fakeLLM{reply: draftReply}
	g, store, key := newTestGenerator(t, client)
	seedSummaries(t, store, key)

	res, err := g.Generate(context.Background(), key.Persona, key.Collection, []int{0, 2})
	require.NoError(t, err)

	assert.Equal(t, "Crash-Free Editor Experience", res.Title)
	assert.Equal(t, []int{0, 2}, res.ClusterIDs)
	assert.Equal(t, 19, res.NumPosts)

	name := filepath.Base(res.Path)
	assert.Equal(t, "Crash-Free_Editor_Experience_PRD_vibecoding_reddit_cursor_hot_500_20260314_150926.pdf", name)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "output must be a PDF document")

	// Prompt carries the selected pain points and the persona display name.
	assert.Contains(t, client.prompt, "editor crashes destroy unsaved work")
	assert.Contains(t, client.prompt, "billing tiers are opaque")
	assert.Contains(t, client.prompt, persona.DisplayName("vibecoding"))
	assert.NotContains(t, client.prompt, types.EmptyClusterSummary)
}

func TestGenerate_MissingSummariesIsNotFound(t *testing.T) {
	g, _, key := newTestGenerator(t, &fakeLLM{reply: draftReply})

	_, err := g.Generate(context.Background(), key.Persona, key.Collection, []int{0})
	var nf *artifact.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Resource, "pain point summaries")
}

func TestGenerate_UnknownPersona(t *testing.T) {
	g, _, _ := newTestGenerator(t, &fakeLLM{reply: draftReply})

	_, err := g.Generate(context.Background(), "nosuch", "reddit_cursor_hot_500.json", []int{0})
	var unknown *persona.UnknownError
	assert.ErrorAs(t, err, &unknown)
}

func TestGenerate_SelectionMatchingNothingFails(t *testing.T) {
	g, store, key := newTestGenerator(t, &fakeLLM{reply: draftReply})
	seedSummaries(t, store, key)

	_, err := g.Generate(context.Background(), key.Persona, key.Collection, []int{42, 99})
	var empty *EmptySelectionError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, []int{42, 99}, empty.Requested)
	assert.Equal(t, []int{0, 1, 2}, empty.Available)
}

func TestGenerate_UnknownIdsInMixedSelectionAreSkipped(t *testing.T) {
	client := &fakeLLM{reply: draftReply}
	g, store, key := newTestGenerator(t, client)
	seedSummaries(t, store, key)

	res, err := g.Generate(context.Background(), key.Persona, key.Collection, []int{0, 42})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.ClusterIDs)
	assert.Equal(t, 12, res.NumPosts)
}

func TestGenerate_LLMFailureLeavesNoFile(t *testing.T) {
	boom := errors.New("model unavailable")
	g, store, key := newTestGenerator(t, &fakeLLM{err: boom})
	seedSummaries(t, store, key)

	_, err := g.Generate(context.Background(), key.Persona, key.Collection, []int{0})
	require.ErrorIs(t, err, boom)

	dir, rerr := g.resolver.Resolve(key)
	require.NoError(t, rerr)
	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".pdf"), "no PDF should exist after a failed draft")
	}
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Unified Billing Portal",
		ExtractTitle("some preamble\n**PRD Draft: Unified Billing Portal**\nrest"))
	assert.Equal(t, "", ExtractTitle("no title line here"))
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "AI-Powered_BI_Onboarding", SanitizeTitle("AI-Powered BI Onboarding"))
	assert.Equal(t, "Generated_PRD", SanitizeTitle(""))
	assert.Equal(t, "Generated_PRD", SanitizeTitle("///???"))
	long := strings.Repeat("a", 80)
	assert.Len(t, SanitizeTitle(long), 50)
}
