package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"evaluation-workers/internal/evaluation/knowledge"
)

func newCatalogCmd() *cobra.Command {
	var kbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the knowledge-base catalog as JSON",
		Long: `Print the knowledge base in catalog form. With --kb the file is validated
first, so this doubles as a check for a custom catalog.

Examples:
  # Dump the built-in catalog as a starting point for a custom one
  evaluate catalog > configs/knowledge-base.json

  # Validate a custom catalog
  evaluate catalog --kb configs/knowledge-base.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kb, err := loadKnowledgeBase(kbPath)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(knowledge.ToCatalog(kb), "", "  ")
			if err != nil {
				return fmt.Errorf("encode catalog: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge-base catalog JSON (default: built-in catalog)")
	return cmd
}
