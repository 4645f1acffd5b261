package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/archivist-ml/collate/internal/pipeline"
	"github.com/archivist-ml/collate/internal/svcctx"
)

var fullPageHTML bool

var processCmd = &cobra.Command{
	Use:   "process <input-dir>",
	Short: "Process documents into the corpus",
	Long: `Process a directory of documents through reconciliation and labeling.

Each document is a subdirectory of <input-dir> named by document id, holding:
  raw.json         raw OCR stream (required)
  classified.json  layout classifier stream (required)
  reference.json   ground-truth spans (optional)
  reference.html   ground-truth HTML, used when reference.json is absent
  source.pdf       source document, used for page dimensions (optional)

A directory that itself contains raw.json is processed as a single document.

Examples:
  collate process ./batch-01
  collate process ./batch-01 --full-page-html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		svcs := svcctx.ServicesFrom(ctx)
		logger := svcs.Logger
		cfg := svcs.ConfigManager.Get()

		inputs, err := collectInputs(args[0])
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no documents found under %s", args[0])
		}
		logger.Info("starting batch", "documents", len(inputs), "workers", cfg.Pipeline.MaxWorkers)

		p := pipeline.New(*cfg, svcs.Store, svcs.Fallback, logger)
		report, err := p.Run(ctx, inputs)
		if err != nil {
			return err
		}

		for _, d := range report.Documents {
			if d.Err != nil {
				fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", d.DocumentID, d.Err)
				continue
			}
			fmt.Printf("%s: %d pages, %d blocks (%d recovered), tiers gt=%d clf=%d unresolved=%d\n",
				d.DocumentID, d.Pages, d.Blocks, d.Recovered,
				d.Stats.GroundTruth, d.Stats.Classifier, d.Stats.Unresolved)
			for _, w := range d.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
		}

		if n := report.Failed(); n > 0 {
			return fmt.Errorf("%d of %d documents failed", n, len(inputs))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVar(&fullPageHTML, "full-page-html", false,
		"reference.html files are full pages needing content extraction")
}

// collectInputs walks the input directory and loads one DocumentInput per
// document directory, in sorted name order.
func collectInputs(dir string) ([]pipeline.DocumentInput, error) {
	// A directory holding raw.json directly is a single document.
	if _, err := os.Stat(filepath.Join(dir, "raw.json")); err == nil {
		in, err := loadDocument(dir)
		if err != nil {
			return nil, err
		}
		return []pipeline.DocumentInput{in}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	inputs := make([]pipeline.DocumentInput, 0, len(names))
	for _, name := range names {
		in, err := loadDocument(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", name, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func loadDocument(dir string) (pipeline.DocumentInput, error) {
	in := pipeline.DocumentInput{
		DocumentID:        filepath.Base(dir),
		ReferenceFullPage: fullPageHTML,
	}

	raw, err := os.ReadFile(filepath.Join(dir, "raw.json"))
	if err != nil {
		return in, fmt.Errorf("reading raw stream: %w", err)
	}
	in.RawJSON = raw

	classified, err := os.ReadFile(filepath.Join(dir, "classified.json"))
	if err != nil {
		return in, fmt.Errorf("reading classified stream: %w", err)
	}
	in.ClassifiedJSON = classified

	if ref, err := os.ReadFile(filepath.Join(dir, "reference.json")); err == nil {
		in.ReferenceJSON = ref
	} else if html, err := os.ReadFile(filepath.Join(dir, "reference.html")); err == nil {
		in.ReferenceHTML = string(html)
	}

	if pdf := filepath.Join(dir, "source.pdf"); fileExists(pdf) {
		in.PDFPath = pdf
	}
	return in, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
