package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/internal/ingest"
	"github.com/samjoshuadud/automation-notion/internal/ui"
	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/types"
)

var dedupFile string

// dedupCmd represents the dedup command
var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Inspect duplicate detection without changing anything",
}

var dedupReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report duplicates without changing anything",
	Long: `Report analyzes duplicates without persisting anything.

Without --file it scans the active collection for records that duplicate
each other. With --file it runs each candidate through the duplicate
matcher against the current collections and prints the decision per
candidate, a dry run of ingest.`,
	RunE: runDedupReport,
}

func init() {
	rootCmd.AddCommand(dedupCmd)
	dedupCmd.AddCommand(dedupReportCmd)
	dedupReportCmd.Flags().StringVarP(&dedupFile, "file", "f", "", "candidates file (json, yaml or toml)")
}

func runDedupReport(cmd *cobra.Command, args []string) error {
	if dedupFile == "" {
		return runDedupScan(cmd)
	}
	candidates, err := ingest.LoadCandidates(dedupFile)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}

	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	active, err := s.ListAssignments(nil, nil)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}
	entries, err := manager.Entries()
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	archivedRecords := make([]models.Assignment, len(entries))
	for i, e := range entries {
		archivedRecords[i] = e.OriginalData
	}

	matcher := newMatcherFromConfig()
	table := &ui.Table{
		Headers:  []string{"Candidate", "Decision", "Match", "Confidence"},
		MaxWidth: 40,
	}

	for _, candidate := range candidates {
		decision, matchedTitle, confidence := "create", "-", ""

		result, matchErr := matcher.Match(candidate, active)
		if matchErr != nil {
			var ambiguous *types.AmbiguousMatchError
			if errors.As(matchErr, &ambiguous) {
				decision = "create (ambiguous)"
				table.Rows = append(table.Rows, []string{candidate.Title, decision, "-", ""})
				continue
			}
			return matchErr
		}

		if result.Kind != dedup.MatchNone {
			decision = "merge"
			matchedTitle = result.Matched.Title
			confidence = fmt.Sprintf("%.2f", result.Confidence)
		} else if res, err := matcher.Match(candidate, archivedRecords); err == nil && res.Kind != dedup.MatchNone {
			decision = "restore"
			matchedTitle = res.Matched.Title
			confidence = fmt.Sprintf("%.2f", res.Confidence)
		}

		table.Rows = append(table.Rows, []string{candidate.Title, decision, matchedTitle, confidence})
	}

	cmd.Print(table.Render())
	return nil
}

// runDedupScan reports duplicate groups already present in the active
// collection.
func runDedupScan(cmd *cobra.Command) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	active, err := s.ListAssignments(nil, nil)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}

	groups := newMatcherFromConfig().DuplicateGroups(active)
	if len(groups) == 0 {
		cmd.Println("No duplicate assignments found.")
		return nil
	}

	table := &ui.Table{
		Headers:  []string{"Group", "Kind", "Confidence", "Title", "Course"},
		MaxWidth: 40,
	}
	for i, group := range groups {
		for _, record := range group.Records {
			course := record.CourseCode
			if course == "" {
				course = record.Course
			}
			table.Rows = append(table.Rows, []string{
				fmt.Sprintf("%d", i+1),
				group.Kind.String(),
				fmt.Sprintf("%.2f", group.MinConfidence),
				record.Title,
				course,
			})
		}
	}
	cmd.Print(table.Render())
	cmd.Printf("%d duplicate groups found\n", len(groups))
	return nil
}
