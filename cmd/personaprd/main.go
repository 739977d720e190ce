// Package main provides the entry point for the PersonaPRD server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/personaprd/personaprd/internal/config"
)

var (
	configPath string
	flagCfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "personaprd",
	Short: "PersonaPRD pipeline server",
	Long:  "PersonaPRD clusters community posts per persona, summarizes the pain points behind each cluster, and drafts PRDs from the summaries a product team selects.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&flagCfg.DataDir, "data-dir", "", "Root directory holding raw/ and processed/ data")
	rootCmd.PersistentFlags().IntVar(&flagCfg.Clusters, "clusters", 0, "Number of k-means clusters")
	rootCmd.PersistentFlags().BoolVar(&flagCfg.Verbose, "verbose", false, "Development-style logging")
}

// loadConfig merges the optional config file, CLI flags and defaults.
// Precedence: flags over file over defaults.
func loadConfig() (config.Config, error) {
	cfg := config.Config{}
	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *fileCfg
	}
	if flagCfg.DataDir != "" {
		cfg.DataDir = flagCfg.DataDir
	}
	if flagCfg.Clusters != 0 {
		cfg.Clusters = flagCfg.Clusters
	}
	if flagCfg.Verbose {
		cfg.Verbose = true
	}
	merged := cfg.MergeWithDefaults()
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
