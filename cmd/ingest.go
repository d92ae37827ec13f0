package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/internal/ingest"
	"github.com/samjoshuadud/automation-notion/internal/logger"
)

var (
	ingestFile   string
	ingestDryRun bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest scraped assignment candidates with duplicate detection",
	Long: `Ingest reads a batch of scraped assignment candidates and runs each one
through duplicate detection against the active collection and the archive.

Matched candidates merge into the existing record, candidates matching an
archived assignment restore it, and the rest are created. Invalid
candidates are skipped and reported; they never abort the batch. The
collection is written once, after the whole batch.

Examples:
  moodlesync ingest --file scraped.json
  moodlesync ingest --file scraped.yaml`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "candidates file (json, yaml or toml)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "report outcomes without writing anything")
	_ = ingestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger.SetCommand("ingest")
	logger.SetLastBatch(ingestFile)

	candidates, err := ingest.LoadCandidates(ingestFile)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}
	if len(candidates) == 0 {
		cmd.Println("No candidates found in file.")
		return nil
	}

	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	ingestor := ingest.NewIngestor(s, manager)
	ingestor.Matcher = newMatcherFromConfig()
	ingestor.DryRun = ingestDryRun

	report, err := ingestor.Ingest(candidates)
	if err != nil {
		return fmt.Errorf("ingest batch: %w", err)
	}

	summary := report.Summary
	prefix := "Processed"
	if ingestDryRun {
		prefix = "Dry run: would process"
	}
	cmd.Printf("%s %d candidates: %d new, %d updated, %d unchanged, %d restored, %d skipped\n",
		prefix, summary.Total(), summary.Created, summary.Updated, summary.Unchanged, summary.Restored, summary.Skipped)

	for _, item := range report.Items {
		switch item.Outcome {
		case ingest.OutcomeSkipped:
			cmd.Printf("  skipped %q: %v\n", item.Title, item.Err)
		case ingest.OutcomeUpdated:
			if verbose {
				cmd.Printf("  updated %q (%s, %.2f): %v\n", item.Title, item.MatchKind, item.Confidence, item.Changes)
			}
		}
	}
	return nil
}

// newMatcherFromConfig builds a matcher with the configured threshold and
// ambiguity band.
func newMatcherFromConfig() *dedup.Matcher {
	m := dedup.NewMatcher()
	cfg := GetConfig()
	if cfg.Dedup.FuzzyThreshold > 0 {
		m.FuzzyThreshold = cfg.Dedup.FuzzyThreshold
	}
	if cfg.Dedup.AmbiguityBand > 0 {
		m.AmbiguityBand = cfg.Dedup.AmbiguityBand
	}
	return m
}
