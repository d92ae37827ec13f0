package archive

import (
	"time"
)

// Stats is a point-in-time snapshot of both collections.
type Stats struct {
	ActiveTotal      int            `json:"active_total"`
	ActiveByStatus   map[string]int `json:"active_by_status"`
	ArchivedTotal    int            `json:"archived_total"`
	ArchivedByReason map[string]int `json:"archived_by_reason"`
	OldestArchived   *time.Time     `json:"oldest_archived,omitempty"`
	NewestArchived   *time.Time     `json:"newest_archived,omitempty"`
	LastCleanup      *time.Time     `json:"last_cleanup,omitempty"`
	ArchiveFileBytes int64          `json:"archive_file_bytes"`
}

// Stats aggregates counts across the active and archived collections.
func (m *Manager) Stats() (Stats, error) {
	stats := Stats{
		ActiveByStatus:   make(map[string]int),
		ArchivedByReason: make(map[string]int),
	}

	active, err := m.Store.ListAssignments(nil, nil)
	if err != nil {
		return Stats{}, err
	}
	stats.ActiveTotal = len(active)
	for _, a := range active {
		stats.ActiveByStatus[string(a.Status)]++
	}

	data, err := m.Archive.Data()
	if err != nil {
		return Stats{}, err
	}
	stats.ArchivedTotal = len(data.Assignments)
	stats.LastCleanup = data.LastCleanup
	for _, e := range data.Assignments {
		stats.ArchivedByReason[e.ArchiveReason]++
		d := e.ArchivedDate
		if stats.OldestArchived == nil || d.Before(*stats.OldestArchived) {
			od := d
			stats.OldestArchived = &od
		}
		if stats.NewestArchived == nil || d.After(*stats.NewestArchived) {
			nd := d
			stats.NewestArchived = &nd
		}
	}

	stats.ArchiveFileBytes = m.Archive.FileSize()
	return stats, nil
}
