package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/logger"
	"github.com/samjoshuadud/automation-notion/internal/ui"
	"github.com/samjoshuadud/automation-notion/models"
)

var (
	archiveCourse  string
	restoreStatus  string
	cleanupDaysVal int
)

// archiveCmd groups the archive lifecycle subcommands.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the assignment archive",
	Long: `Manage the archive of completed assignments.

Completed assignments are moved out of the active collection once they have
been unchanged for the retention period (cleanup), or on demand (add).
Archived assignments can come back via restore.`,
}

var archiveCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Archive completed assignments older than the retention period",
	RunE:  runArchiveCleanup,
}

var archiveAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Archive one assignment now, regardless of age or status",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveAdd,
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore <title>",
	Short: "Restore an archived assignment to the active collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveRestore,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived assignments",
	RunE:  runArchiveList,
}

var archiveStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for both collections",
	RunE:  runArchiveStats,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveCleanupCmd, archiveAddCmd, archiveRestoreCmd, archiveListCmd, archiveStatsCmd)

	archiveCleanupCmd.Flags().IntVar(&cleanupDaysVal, "retention-days", 0, "override the configured retention period")
	archiveAddCmd.Flags().StringVar(&archiveCourse, "course", "", "course code to disambiguate the title")
	archiveRestoreCmd.Flags().StringVar(&archiveCourse, "course", "", "course code to disambiguate the title")
	archiveRestoreCmd.Flags().StringVar(&restoreStatus, "status", "Pending", "status to restore with")
}

func runArchiveCleanup(cmd *cobra.Command, args []string) error {
	logger.SetCommand("archive cleanup")
	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	if cleanupDaysVal > 0 {
		manager.RetentionDays = cleanupDaysVal
	}

	result, err := manager.CleanupCompleted()
	if err != nil {
		return fmt.Errorf("archive cleanup: %w", err)
	}

	if result.NewlyArchivedCount == 0 {
		cmd.Println("No assignments need archiving.")
		return nil
	}
	cmd.Printf("Archived %d completed assignments:\n", result.NewlyArchivedCount)
	for _, title := range result.NewlyArchived {
		cmd.Printf("  %s\n", title)
	}
	cmd.Printf("Active: %d, archived total: %d\n", result.ActiveCount, result.TotalArchived)
	return nil
}

func runArchiveAdd(cmd *cobra.Command, args []string) error {
	logger.SetCommand("archive add")
	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	entry, err := manager.ManualArchive(args[0], archiveCourse)
	if err != nil {
		return fmt.Errorf("archive assignment: %w", err)
	}
	cmd.Printf("Archived %q (%s)\n", entry.Title, entry.ArchiveReason)
	return nil
}

func runArchiveRestore(cmd *cobra.Command, args []string) error {
	logger.SetCommand("archive restore")
	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	status, err := models.ParseStatus(restoreStatus)
	if err != nil {
		return fmt.Errorf("invalid --status value %q", restoreStatus)
	}

	restored, err := manager.Restore(args[0], archiveCourse, status)
	if err != nil {
		return fmt.Errorf("restore assignment: %w", err)
	}
	cmd.Printf("Restored %q with status %s\n", restored.Title, restored.Status)
	return nil
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	entries, err := manager.Entries()
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("The archive is empty.")
		return nil
	}
	ui.RenderArchiveList(entries)
	return nil
}

func runArchiveStats(cmd *cobra.Command, args []string) error {
	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	stats, err := manager.Stats()
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}
	ui.RenderStats(stats)
	return nil
}
