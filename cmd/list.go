package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/ui"
	"github.com/samjoshuadud/automation-notion/models"
)

var (
	listStatus string
	listCourse string
	listJSON   bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active assignments",
	Long: `List the active assignment collection.

Examples:
  moodlesync list                         # All active assignments
  moodlesync list --status Pending        # Only pending
  moodlesync list --course HCI300         # One course
  moodlesync list --json                  # Machine-readable output`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (Pending, 'In Progress', Completed)")
	listCmd.Flags().StringVar(&listCourse, "course", "", "filter by course code or name")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var filterFn func(models.Assignment) bool
	if listStatus != "" || listCourse != "" {
		status, parseErr := parseStatusFlag(listStatus)
		if parseErr != nil {
			return parseErr
		}
		course := strings.ToLower(strings.TrimSpace(listCourse))
		filterFn = func(a models.Assignment) bool {
			if status != "" && a.Status != status {
				return false
			}
			if course != "" && !strings.EqualFold(a.CourseCode, course) && !strings.EqualFold(a.Course, course) {
				return false
			}
			return true
		}
	}

	assignments, err := s.ListAssignments(filterFn, func(list []models.Assignment) {
		sort.Slice(list, func(i, j int) bool {
			if list[i].DueDate != list[j].DueDate {
				// Empty due dates sort last.
				if list[i].DueDate == "" {
					return false
				}
				if list[j].DueDate == "" {
					return true
				}
				return list[i].DueDate < list[j].DueDate
			}
			return list[i].Title < list[j].Title
		})
	})
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}

	if listJSON {
		out, err := json.MarshalIndent(assignments, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	if len(assignments) == 0 {
		cmd.Println("No assignments found.")
		cmd.Println("Add some with: moodlesync ingest --file scraped.json")
		return nil
	}

	ui.RenderAssignmentList(assignments)
	return nil
}

func parseStatusFlag(value string) (models.AssignmentStatus, error) {
	if value == "" {
		return "", nil
	}
	status, err := models.ParseStatus(value)
	if err != nil {
		return "", fmt.Errorf("invalid --status value %q (want Pending, 'In Progress' or Completed)", value)
	}
	return status, nil
}
