package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/clustering"
	"github.com/personaprd/personaprd/internal/dataset"
	"github.com/personaprd/personaprd/internal/llm"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/pipeline"
	"github.com/personaprd/personaprd/internal/preprocess"
	"github.com/personaprd/personaprd/internal/summarize"
	"github.com/personaprd/personaprd/internal/visualization"
)

var (
	runPersona    string
	runCollection string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline for one persona/collection",
	Long:  "Load a collection, clean and embed its posts, cluster them, compute diagnostics, render the visualization and summarize each cluster's pain points. Intermediate artifacts from earlier runs are reused.",
	RunE:  runPipelineCmd,
}

func init() {
	runCmd.Flags().StringVar(&runPersona, "persona", "", "Persona key (see 'personas')")
	runCmd.Flags().StringVar(&runCollection, "collection", "", "Collection file name, e.g. reddit_cursor_hot_500.json")
	_ = runCmd.MarkFlagRequired("persona")
	_ = runCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(runCmd)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
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

	orch := newOrchestrator(cfg.RawDir(), cfg.ProcessedDir(), client, cfg.Clusters, cfg.Components, cfg.SummaryWorkers, log)

	res, err := orch.Run(ctx, runPersona, runCollection)
	if err != nil {
		return err
	}

	fmt.Printf("Pipeline finished: %d posts, %d clusters\n", res.PostCount, res.ClusterCount)
	fmt.Printf("  silhouette score:     %.4f\n", res.Diagnostics.SilhouetteScore)
	fmt.Printf("  intra/inter ratio:    %.4f\n", res.Diagnostics.IntraInterRatio)
	fmt.Printf("  artifacts:            %s\n", res.OutputDir)
	fmt.Printf("  visualization:        %s\n", res.VisualizationPath)
	return nil
}

// newOrchestrator wires the concrete pipeline stages. Shared by the run and
// generate-prd commands.
func newOrchestrator(rawDir, processedDir string, client llm.Client, clusters, components, workers int, log *logging.Logger) *pipeline.Orchestrator {
	return pipeline.New(pipeline.Deps{
		Resolver:   artifact.NewResolver(processedDir),
		Loader:     dataset.NewLoader(rawDir, log),
		Clean:      preprocess.Clean,
		Embedder:   client,
		Clusterer:  clustering.New(clusters, components, log),
		Visualizer: visualization.NewRenderer(log),
		Summarizer: summarize.New(client, workers, log),
		Clusters:   clusters,
		Log:        log,
	}, clustering.LabelCodec{}, summarize.SummaryCodec{})
}
