package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/personaprd/personaprd/internal/dataset"
	"github.com/personaprd/personaprd/internal/logging"
	"github.com/personaprd/personaprd/internal/persona"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List configured personas and their available collections",
	RunE:  runPersonas,
}

func init() {
	rootCmd.AddCommand(personasCmd)
}

func runPersonas(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loader := dataset.NewLoader(cfg.RawDir(), logging.NewNop())
	for _, key := range persona.Keys() {
		fmt.Printf("%s\t%s\n", key, persona.DisplayName(key))
		collections, err := loader.ListCollections(key)
		if err != nil {
			fmt.Printf("\t(no data folder)\n")
			continue
		}
		for _, c := range collections {
			fmt.Printf("\t%s\t%s\n", c, dataset.ReadableCollectionName(c))
		}
	}
	return nil
}
