// Package prd drafts Product Requirements Documents from previously
// generated pain-point summaries. Generation never re-runs the pipeline:
// the summaries artifact must already exist for the persona/collection.
package prd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/persona"
	"github.com/personaprd/personaprd/internal/types"
)

const prdPromptTemplate = `
You are a senior Product Manager AI assistant at PersonaPRD, an AI-powered product discovery platform.

Your task is to generate a structured Product Requirements Document (PRD) draft based on the following pain point summaries collected from user community data.

**Persona:** %[1]s

**Pain Points:**
%[2]s

**Instructions:**

Write a PRD draft that includes the following 6 items in this exact order:

1. A **single bold title line** like:
   **PRD Draft: [short, product-focused name for the solution]**
   (e.g., "**PRD Draft: AI-Powered BI Onboarding and Analytics Platform**")

2. **Problem Summary:** A clear summary of the problem(s) these pain points represent. Use simple, direct language.

3. **Why This Problem Matters:** Explain why this problem is significant specifically for the **%[1]s** persona. Highlight the impact on productivity, workflows, or business goals.

4. **Potential Solution Overview:** Provide a concise solution concept that addresses these pain points.

5. **Suggested MVP Features:** List 3-5 minimum viable product features as bullet points, phrased as actionable features (e.g. "Feature X does Y to solve Z").

6. **Next Steps:** Outline immediate steps the team should take to validate and build this solution (e.g. user interviews, prototype, sprint planning).

**Strict output rules:**
- Do NOT include any metadata like dates, authors, product IDs, or document codes.
- Do NOT add extra sections beyond the 6 listed above.
- Do NOT mention that this is AI-generated.
- Do NOT include headings like "Product Requirements Document" or "PersonaPRD PRD".

**Tone guidelines:**
- Use clear, professional, and confident language.
- Avoid generic filler phrases or vague platitudes.
- Tailor the writing to a product team preparing for sprint planning.

PRD Draft:
`

// defaultTitleBase names the output file when no title line can be
// extracted from the generated draft.
const defaultTitleBase = "Generated_PRD"

// maxTitleBaseLen caps the sanitized title portion of the filename.
const maxTitleBaseLen = 50

// EmptySelectionError reports that none of the requested cluster ids matched
// a summary row.
type EmptySelectionError struct {
	Requested []int
	Available []int
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("no pain point summaries match selected cluster ids %v (available: %v)", e.Requested, e.Available)
}

// Result describes one generated PRD document.
type Result struct {
	Path       string
	Title      string
	ClusterIDs []int
	NumPosts   int
}

// Generator turns selected pain-point summaries into a PRD PDF.
type Generator struct {
	client    llm.Client
	resolver  *artifact.Resolver
	summaries *artifact.Store[[]types.ClusterSummary]
	now       func() time.Time
	log       *logging.Logger
}

func NewGenerator(client llm.Client, resolver *artifact.Resolver, summaries *artifact.Store[[]types.ClusterSummary], log *logging.Logger) *Generator {
	return &Generator{
		client:    client,
		resolver:  resolver,
		summaries: summaries,
		now:       time.Now,
		log:       log.With("component", "prd"),
	}
}

// Generate loads the summaries artifact for the persona/collection, filters
// it to the selected cluster ids, drafts a PRD via the LLM and writes it as
// a PDF next to the other artifacts. Unknown cluster ids in the selection
// are skipped; a selection matching nothing is an error.
func (g *Generator) Generate(ctx context.Context, personaKey, collection string, selected []int) (*Result, error) {
	key := artifact.Key{Persona: personaKey, Collection: collection}

	rows, found, err := g.summaries.Load(key)
	if err != nil {
		return nil, err
	}
	if !found {
		path, perr := g.summaries.Path(key)
		if perr != nil {
			return nil, perr
		}
		return nil, &artifact.NotFoundError{Resource: "pain point summaries (run the pipeline first)", Path: path}
	}

	picked, available := filterSelection(rows, selected)
	if len(picked) == 0 {
		return nil, &EmptySelectionError{Requested: selected, Available: available}
	}

	painPoints := make([]string, len(picked))
	clusterIDs := make([]int, len(picked))
	numPosts := 0
	for i, row := range picked {
		painPoints[i] = row.Summary
		clusterIDs[i] = row.ClusterID
		numPosts += row.NumPosts
	}

	g.log.Info("generating PRD draft", "persona", personaKey, "collection", collection,
		"clusters", len(picked), "posts", numPosts)

	prompt := fmt.Sprintf(prdPromptTemplate, persona.DisplayName(personaKey), bulletList(painPoints))
	body, err := g.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &artifact.ComputeError{Stage: "prd", Cause: err}
	}
	body = strings.TrimSpace(body)

	title := ExtractTitle(body)
	content := buildHeader(collection, clusterIDs, numPosts, painPoints) + body

	dir, err := g.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("%s_PRD_%s_%s_%s.pdf",
		SanitizeTitle(title), personaKey, artifact.CollectionFolder(collection),
		g.now().Format("20060102_150405"))
	path := filepath.Join(dir, fileName)

	if err := writePDF(path, content); err != nil {
		return nil, fmt.Errorf("writing PRD document: %w", err)
	}

	g.log.Info("saved PRD document", "path", path)
	return &Result{Path: path, Title: title, ClusterIDs: clusterIDs, NumPosts: numPosts}, nil
}

// filterSelection keeps summary rows whose cluster id is in the selection,
// preserving table order, and returns the available ids for error reporting.
func filterSelection(rows []types.ClusterSummary, selected []int) (picked []types.ClusterSummary, available []int) {
	want := make(map[int]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	for _, row := range rows {
		available = append(available, row.ClusterID)
		if want[row.ClusterID] {
			picked = append(picked, row)
		}
	}
	return picked, available
}

// buildHeader renders the provenance block placed above the LLM draft:
// source collection, human-readable (1-indexed) cluster ids, post counts and
// the selected pain points.
func buildHeader(collection string, clusterIDs []int, numPosts int, painPoints []string) string {
	display := make([]string, len(clusterIDs))
	for i, id := range clusterIDs {
		display[i] = fmt.Sprintf("%d", id+1)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Source: %s**\n", collection)
	fmt.Fprintf(&b, "**Clusters analyzed:** %s (based on %d posts)\n\n", strings.Join(display, ", "), numPosts)
	b.WriteString("**Pain Points Selected:**\n")
	b.WriteString(bulletList(painPoints))
	b.WriteString("\n\n")
	b.WriteString("To review the raw discussions behind these pain points, open cluster_visualization.html in the same folder as this PRD.\n\n")
	b.WriteString("---\n")
	return b.String()
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// ExtractTitle pulls the product name out of the draft's bold
// "**PRD Draft: ...**" line. It scans all lines, not just the first, since
// models occasionally emit a preamble.
func ExtractTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "**PRD Draft:") {
			continue
		}
		title := strings.TrimPrefix(line, "**PRD Draft:")
		title = strings.ReplaceAll(title, "**", "")
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	return ""
}

// SanitizeTitle reduces a draft title to a safe filename fragment: only
// letters, digits, dashes and underscores survive, spaces become
// underscores, and the result is length-capped.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return defaultTitleBase
	}
	if len(out) > maxTitleBaseLen {
		out = out[:maxTitleBaseLen]
	}
	return out
}

// writePDF renders the document to a temp file and moves it into place so a
// failed render never leaves a partial PDF behind.
func writePDF(path, content string) error {
	tmp := path + ".tmp"
	if err := renderPDF(tmp, content); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
