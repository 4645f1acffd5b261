package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archivist-ml/collate/internal/block"
	"github.com/archivist-ml/collate/internal/corpus"
	"github.com/archivist-ml/collate/internal/svcctx"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect and correct the training corpus",
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus row counts by version and tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		store := svcctx.StoreFrom(cmd.Context())
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("documents: %d\n", stats.Documents)
		for _, v := range []corpus.Version{corpus.VersionExtracted, corpus.VersionLabeled, corpus.VersionCorrected} {
			fmt.Printf("%s rows:   %d\n", v, stats.RowsByVersion[v])
		}
		for _, tier := range []block.Tier{block.TierGroundTruth, block.TierClassifier, block.TierUnresolved} {
			fmt.Printf("  %-22s %d\n", tier, stats.RowsByTier[string(tier)])
		}
		return nil
	},
}

var corpusAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report human-correction agreement with auto labels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		store := svcctx.StoreFrom(cmd.Context())
		audit, err := store.CorrectionAudit(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("corrections: %d\n", audit.Corrections)
		fmt.Printf("agreements:  %d\n", audit.Agreements)
		fmt.Printf("rate:        %.2f\n", audit.Rate)
		return nil
	},
}

var correctReviewer string

var corpusCorrectCmd = &cobra.Command{
	Use:   "correct <block-id> <label>",
	Short: "Record a human label correction for a block",
	Long: `Record a reviewer's label for a block. The correction is appended as a
new corpus row superseding the auto label; nothing is overwritten.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupServices(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		store := svcctx.StoreFrom(cmd.Context())
		rowID, err := store.Correct(cmd.Context(), args[0], block.Label(args[1]), correctReviewer)
		if err != nil {
			return err
		}
		fmt.Printf("correction recorded as row %s\n", rowID)
		return nil
	},
}

func init() {
	corpusCorrectCmd.Flags().StringVar(&correctReviewer, "reviewer", "", "reviewer identity recorded with the correction")
	_ = corpusCorrectCmd.MarkFlagRequired("reviewer")

	corpusCmd.AddCommand(corpusStatsCmd)
	corpusCmd.AddCommand(corpusAuditCmd)
	corpusCmd.AddCommand(corpusCorrectCmd)
}
