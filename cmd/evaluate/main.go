// Package main implements the evaluate CLI for scoring a training-program
// document locally, without a Zeebe broker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate <file>",
		Short: "Evaluate a training-program document against the knowledge base",
		Long: `evaluate extracts the text of a PDF, DOCX, TXT or Markdown document, scores it
against the evaluation knowledge base and prints the narrative report.

Examples:
  # Evaluate with the built-in knowledge base
  evaluate program.pdf --program "Leadership Basics"

  # Use a custom catalog and print the full result as JSON
  evaluate program.docx --kb configs/knowledge-base.json --format json

  # Count every keyword occurrence instead of distinct keywords
  evaluate notes.txt --policy occurrences`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts, args[0])
		},
	}

	opts.bindFlags(cmd)
	cmd.AddCommand(newCatalogCmd())
	return cmd
}
