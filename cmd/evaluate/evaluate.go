package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperrors "evaluation-workers/internal/common/errors"
	"evaluation-workers/internal/evaluation/extract"
	"evaluation-workers/internal/evaluation/knowledge"
	"evaluation-workers/internal/evaluation/narrative"
	"evaluation-workers/internal/evaluation/scoring"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type evaluateOptions struct {
	program   string
	kbPath    string
	format    string
	minLength int
	policy    string
}

func (o *evaluateOptions) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.program, "program", "", "program name used in the report (default: file name)")
	f.StringVar(&o.kbPath, "kb", "", "knowledge-base catalog JSON (default: built-in catalog)")
	f.StringVar(&o.format, "format", formatText, "output format: text or json")
	f.IntVar(&o.minLength, "min-length", extract.MinViableLength, "fewest characters of text worth scoring; 0 disables the check")
	f.StringVar(&o.policy, "policy", scoring.PolicyDistinct, "match policy: distinct or occurrences")
}

// jsonReport is the --format json document.
type jsonReport struct {
	Program string `json:"program"`
	File    string `json:"file"`
	Band    string `json:"band"`
	*scoring.Result
}

func runEvaluate(cmd *cobra.Command, opts *evaluateOptions, path string) error {
	if opts.format != formatText && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q: use %s or %s", opts.format, formatText, formatJSON)
	}

	kb, err := loadKnowledgeBase(opts.kbPath)
	if err != nil {
		return err
	}

	policy, err := scoring.ParsePolicy(opts.policy, 0, 0)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	stderr := cmd.ErrOrStderr()
	registry := extract.NewRegistry(extract.PDF{
		OnPageError: func(page int, err error) {
			fmt.Fprintf(stderr, "warning: page %d could not be read and is scored as empty: %v\n", page, err)
		},
	})

	name := filepath.Base(path)
	text, err := registry.Extract(cmd.Context(), extract.Document{Name: name, Data: data})
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return fmt.Errorf("%s: unsupported format, expected one of %s", name, strings.Join(registry.Supported(), ", "))
		}
		return fmt.Errorf("%s could not be read: %w", name, err)
	}

	if err := extract.CheckViable(text, opts.minLength); err != nil {
		return fmt.Errorf("%s cannot be evaluated: %w", name, err)
	}

	program := opts.program
	if program == "" {
		program = strings.TrimSuffix(name, filepath.Ext(name))
	}

	res := scoring.NewEngine(policy).Evaluate(text, kb)
	res.Narrative = narrative.Narrate(res, program)

	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonReport{
			Program: program,
			File:    name,
			Band:    narrative.BandFor(res.Percentage).String(),
			Result:  res,
		})
	}

	_, err = fmt.Fprint(out, res.Narrative)
	return err
}

func loadKnowledgeBase(path string) (*knowledge.KnowledgeBase, error) {
	if path == "" {
		return knowledge.Default(), nil
	}
	kb, err := knowledge.LoadFile(path)
	if err != nil {
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) {
			return nil, fmt.Errorf("%s: %s", stdErr.Message, stdErr.Details)
		}
		return nil, err
	}
	return kb, nil
}
