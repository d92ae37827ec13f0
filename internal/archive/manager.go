// Package archive implements the lifecycle that moves completed
// assignments out of the active collection after a retention period and
// restores them when a remote platform reports they came back to life.
package archive

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/store"
	"github.com/samjoshuadud/automation-notion/types"
)

// DefaultRetentionDays is how long a completed assignment stays in the
// active collection before the cleanup scan archives it.
const DefaultRetentionDays = 30

// Manager owns every transition into and out of the archive collection.
// No other component mutates archive state directly.
type Manager struct {
	Store         store.AssignmentStore
	Archive       store.ArchiveStore
	RetentionDays int
	// Now is the clock used for eligibility checks; tests substitute it.
	Now func() time.Time
}

// NewManager wires a manager with the default retention policy.
func NewManager(s store.AssignmentStore, a store.ArchiveStore) *Manager {
	return &Manager{
		Store:         s,
		Archive:       a,
		RetentionDays: DefaultRetentionDays,
		Now:           time.Now,
	}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func (m *Manager) retention() int {
	if m.RetentionDays > 0 {
		return m.RetentionDays
	}
	return DefaultRetentionDays
}

// CleanupResult summarizes one archive-eligibility scan.
type CleanupResult struct {
	ActiveCount        int      `json:"active_count"`
	NewlyArchivedCount int      `json:"newly_archived_count"`
	NewlyArchived      []string `json:"newly_archived"`
	TotalArchived      int      `json:"total_archived"`
}

// Eligible reports whether an assignment qualifies for automatic
// archiving: completed, and unchanged for at least the retention window.
// The boundary is inclusive: exactly retention days old is eligible.
func (m *Manager) Eligible(a models.Assignment, now time.Time) bool {
	if a.Status != models.StatusCompleted {
		return false
	}
	completedAt := a.LastUpdated
	if completedAt.IsZero() {
		completedAt = a.AddedDate
	}
	if completedAt.IsZero() {
		return false
	}
	age := now.Sub(completedAt)
	return age >= time.Duration(m.retention())*24*time.Hour
}

// agedReason stamps the retention window into the archive reason,
// e.g. "completed_30_days".
func (m *Manager) agedReason() string {
	return fmt.Sprintf("completed_%d_days", m.retention())
}

// NewEntry wraps an assignment as an archive entry.
func NewEntry(a models.Assignment, reason string, now time.Time) models.ArchiveEntry {
	completion := a.LastUpdated
	if completion.IsZero() {
		completion = a.AddedDate
	}
	return models.ArchiveEntry{
		OriginalData:   a,
		ArchivedDate:   now,
		ArchiveReason:  reason,
		CompletionDate: completion,
		Title:          a.Title,
		CourseCode:     a.CourseCode,
	}
}

// CleanupCompleted scans the active collection and archives every eligible
// assignment. Running it again with no new completions is a no-op: records
// already archived are no longer active, so they cannot be selected twice.
func (m *Manager) CleanupCompleted() (CleanupResult, error) {
	now := m.now()
	logrus.Infof("Starting archive cleanup (completed assignments older than %d days)", m.retention())

	active, err := m.Store.ListAssignments(nil, nil)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("load active assignments: %w", err)
	}

	remaining := make([]models.Assignment, 0, len(active))
	var entries []models.ArchiveEntry
	var titles []string
	for _, a := range active {
		if m.Eligible(a, now) {
			entries = append(entries, NewEntry(a, m.agedReason(), now))
			titles = append(titles, a.Title)
			logrus.Infof("Archived completed assignment: %s", a.Title)
		} else {
			remaining = append(remaining, a)
		}
	}

	if len(entries) > 0 {
		if err := m.Store.ReplaceAll(remaining); err != nil {
			return CleanupResult{}, fmt.Errorf("persist active collection: %w", err)
		}
		if err := m.Archive.Append(entries...); err != nil {
			return CleanupResult{}, fmt.Errorf("append archive entries: %w", err)
		}
	} else {
		logrus.Info("No assignments need archiving")
	}

	archiveData, err := m.Archive.Data()
	if err != nil {
		return CleanupResult{}, err
	}
	return CleanupResult{
		ActiveCount:        len(remaining),
		NewlyArchivedCount: len(entries),
		NewlyArchived:      titles,
		TotalArchived:      archiveData.TotalArchived,
	}, nil
}

// ManualArchive moves one assignment to the archive regardless of age.
// The target is located by normalized title, scoped by course when given.
func (m *Manager) ManualArchive(title, course string) (models.ArchiveEntry, error) {
	now := m.now()
	active, err := m.Store.ListAssignments(nil, nil)
	if err != nil {
		return models.ArchiveEntry{}, fmt.Errorf("load active assignments: %w", err)
	}

	idx := findAssignment(active, title, course)
	if idx == -1 {
		return models.ArchiveEntry{}, &types.NotFoundError{Kind: "active assignment", Key: title}
	}

	target := active[idx]
	remaining := append(append([]models.Assignment{}, active[:idx]...), active[idx+1:]...)
	entry := NewEntry(target, models.ArchiveReasonManual, now)

	if err := m.Store.ReplaceAll(remaining); err != nil {
		return models.ArchiveEntry{}, fmt.Errorf("persist active collection: %w", err)
	}
	if err := m.Archive.Append(entry); err != nil {
		return models.ArchiveEntry{}, fmt.Errorf("append archive entry: %w", err)
	}
	logrus.Infof("Manually archived assignment: %s", target.Title)
	return entry, nil
}

// Entries returns the current archive entries.
func (m *Manager) Entries() ([]models.ArchiveEntry, error) {
	data, err := m.Archive.Data()
	if err != nil {
		return nil, err
	}
	return data.Assignments, nil
}

// PopEntry removes and returns the archived entry matching the given
// identity (record ID or origin email ID) or, failing that, normalized
// title scoped by course. Callers stage the returned record back into the
// active collection themselves; PopEntry only performs the archive-side
// half of a restore.
func (m *Manager) PopEntry(identifier, title, course string) (models.ArchiveEntry, error) {
	data, err := m.Archive.Data()
	if err != nil {
		return models.ArchiveEntry{}, err
	}

	idx := -1
	if identifier != "" {
		for i, e := range data.Assignments {
			if e.OriginalData.ID == identifier || (e.OriginalData.EmailID != "" && e.OriginalData.EmailID == identifier) {
				idx = i
				break
			}
		}
	}
	if idx == -1 && title != "" {
		sig := dedup.NormalizeTitle(title)
		scope := dedup.NormalizeCourse(course)
		for i, e := range data.Assignments {
			if dedup.NormalizeTitle(e.Title) != sig {
				continue
			}
			if scope != "" && dedup.NormalizeCourse(e.CourseCode) != scope &&
				dedup.NormalizeCourse(e.OriginalData.Course) != scope {
				continue
			}
			idx = i
			break
		}
	}
	if idx == -1 {
		key := identifier
		if key == "" {
			key = title
		}
		return models.ArchiveEntry{}, &types.NotFoundError{Kind: "archived assignment", Key: key}
	}

	entry := data.Assignments[idx]
	remaining := append(append([]models.ArchiveEntry{}, data.Assignments[:idx]...), data.Assignments[idx+1:]...)
	if err := m.Archive.Replace(remaining); err != nil {
		return models.ArchiveEntry{}, fmt.Errorf("remove archive entry: %w", err)
	}
	return entry, nil
}

// Restore moves an archived assignment back to the active collection with
// the given status (Pending when empty) and a fresh last_updated.
func (m *Manager) Restore(title, course string, status models.AssignmentStatus) (models.Assignment, error) {
	entry, err := m.PopEntry("", title, course)
	if err != nil {
		return models.Assignment{}, err
	}

	restored := entry.OriginalData
	if status == "" {
		status = models.StatusPending
	}
	restored.Status = status
	restored.LastUpdated = m.now()

	created, err := m.Store.CreateAssignment(restored)
	if err != nil {
		// Put the entry back so the record is not stranded in neither
		// collection.
		_ = m.Archive.Append(entry)
		return models.Assignment{}, fmt.Errorf("restore to active collection: %w", err)
	}
	logrus.Infof("Successfully restored assignment: %s", created.Title)
	return created, nil
}

// findAssignment locates an active assignment by normalized title, scoped
// by course code or course name when supplied.
func findAssignment(active []models.Assignment, title, course string) int {
	sig := dedup.NormalizeTitle(title)
	scope := dedup.NormalizeCourse(course)
	for i, a := range active {
		if dedup.NormalizeTitle(a.Title) != sig {
			continue
		}
		if scope != "" && dedup.NormalizeCourse(a.CourseCode) != scope && dedup.NormalizeCourse(a.Course) != scope {
			continue
		}
		return i
	}
	return -1
}
