package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/logger"
	syncpkg "github.com/samjoshuadud/automation-notion/internal/sync"
	"github.com/samjoshuadud/automation-notion/models"
)

var pushSource string

// pushCmd represents the push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Create missing assignments on Notion and Todoist",
	Long: `Push sends active, non-completed assignments to the configured platforms.
Assignments the platform already tracks are left alone; only missing ones
are created.

Examples:
  moodlesync push                  # All configured platforms
  moodlesync push --source notion  # One platform only`,
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().StringVar(&pushSource, "source", "", "limit to one platform (notion or todoist)")
}

func runPush(cmd *cobra.Command, args []string) error {
	logger.SetCommand("push")
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sources, err := configuredSources(pushSource)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no platforms configured; set notion.token or todoist.token")
	}

	// Completed work stays local; platforms only track open assignments.
	assignments, err := s.ListAssignments(func(a models.Assignment) bool {
		return a.Status != models.StatusCompleted
	}, nil)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}
	if len(assignments) == 0 {
		cmd.Println("Nothing to push.")
		return nil
	}

	for _, source := range sources {
		pusher, ok := source.(syncpkg.TaskPusher)
		if !ok {
			continue
		}
		result, err := syncpkg.PushAssignments(cmd.Context(), pusher, assignments)
		if err != nil {
			PrintError(fmt.Sprintf("Push to %s failed.", source.Name()), err)
			continue
		}
		cmd.Printf("%s push: created %d, already present %d, failed %d\n",
			source.Name(), result.Created, result.Present, result.Failed)
	}
	return nil
}
