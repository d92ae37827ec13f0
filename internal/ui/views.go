package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/models"
)

// RenderAssignmentList prints the active collection as a compact table.
func RenderAssignmentList(assignments []models.Assignment) {
	table := &Table{
		Headers:  []string{"ID", "Title", "Course", "Due", "Status"},
		MaxWidth: 40,
	}
	for _, a := range assignments {
		course := a.CourseCode
		if course == "" {
			course = a.Course
		}
		due := a.DueDate
		if due == "" {
			due = "-"
		}
		table.Rows = append(table.Rows, []string{
			TruncateID(a.ID),
			a.Title,
			course,
			due,
			StatusStyle(string(a.Status)).Render(string(a.Status)),
		})
	}
	fmt.Print(table.Render())
	fmt.Printf(" %s\n", StyleSubtle.Render(fmt.Sprintf("%d assignments", len(assignments))))
}

// RenderArchiveList prints archive entries with their reason and age.
func RenderArchiveList(entries []models.ArchiveEntry) {
	table := &Table{
		Headers:  []string{"Title", "Course", "Archived", "Reason"},
		MaxWidth: 40,
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{
			e.Title,
			e.CourseCode,
			e.ArchivedDate.Format("2006-01-02"),
			e.ArchiveReason,
		})
	}
	fmt.Print(table.Render())
	fmt.Printf(" %s\n", StyleSubtle.Render(fmt.Sprintf("%d archived", len(entries))))
}

// RenderStats prints the combined collection statistics.
func RenderStats(stats archive.Stats) {
	content := fmt.Sprintf("Active assignments:   %d\n", stats.ActiveTotal)
	for _, status := range sortedKeys(stats.ActiveByStatus) {
		content += fmt.Sprintf("  %-20s %d\n", status, stats.ActiveByStatus[status])
	}
	content += fmt.Sprintf("Archived assignments: %d\n", stats.ArchivedTotal)
	for _, reason := range sortedKeys(stats.ArchivedByReason) {
		content += fmt.Sprintf("  %-20s %d\n", reason, stats.ArchivedByReason[reason])
	}
	if stats.LastCleanup != nil {
		content += fmt.Sprintf("Last cleanup:         %s\n", stats.LastCleanup.Format(time.RFC3339))
	}
	content += fmt.Sprintf("Archive file size:    %d bytes", stats.ArchiveFileBytes)

	fmt.Println(RenderPanel("Assignment Statistics", content))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
