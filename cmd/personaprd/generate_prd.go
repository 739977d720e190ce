package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/prd"
	"github.com/personaprd/personaprd/internal/summarize"
	"github.com/personaprd/personaprd/internal/types"
)

var (
	prdPersona    string
	prdCollection string
	prdClusters   []int
)

var generatePRDCmd = &cobra.Command{
	Use:   "generate-prd",
	Short: "Draft a PRD from selected cluster summaries",
	Long:  "Load the pain point summaries produced by a prior pipeline run, filter them to the selected cluster ids, and draft a PRD document (PDF) from them.",
	RunE:  runGeneratePRD,
}

func init() {
	generatePRDCmd.Flags().StringVar(&prdPersona, "persona", "", "Persona key (see 'personas')")
	generatePRDCmd.Flags().StringVar(&prdCollection, "collection", "", "Collection file name, e.g. reddit_cursor_hot_500.json")
	generatePRDCmd.Flags().IntSliceVar(&prdClusters, "clusters", nil, "Cluster ids to include (0-indexed)")
	_ = generatePRDCmd.MarkFlagRequired("persona")
	_ = generatePRDCmd.MarkFlagRequired("collection")
	_ = generatePRDCmd.MarkFlagRequired("clusters")
	rootCmd.AddCommand(generatePRDCmd)
}

func runGeneratePRD(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key configured: set GOOGLE_API_KEY or api_key in the config file")
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}
	defer client.Close()

	resolver := artifact.NewResolver(cfg.ProcessedDir())
	summaries := artifact.NewStore[[]types.ClusterSummary](
		"summarization", "pain_point_summaries.csv", resolver, summarize.SummaryCodec{}, log)
	gen := prd.NewGenerator(client, resolver, summaries, log)

	res, err := gen.Generate(ctx, prdPersona, prdCollection, prdClusters)
	if err != nil {
		return err
	}

	display := make([]string, len(res.ClusterIDs))
	for i, id := range res.ClusterIDs {
		display[i] = fmt.Sprintf("%d", id+1)
	}
	fmt.Printf("PRD draft saved: %s\n", res.Path)
	fmt.Printf("  title:    %s\n", res.Title)
	fmt.Printf("  clusters: %s (based on %d posts)\n", strings.Join(display, ", "), res.NumPosts)
	return nil
}
