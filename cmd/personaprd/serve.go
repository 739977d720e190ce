package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server that exposes REST endpoints for dispatching pipeline runs, polling their status, and generating PRDs.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	srv, err := server.Build(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

func newLogger(verbose bool) (*logging.Logger, error) {
	mode := "production"
	if verbose {
		mode = "development"
	}
	return logging.New(mode)
}
