package models

import "time"

// Archive reasons recorded on entries. Cleanup stamps the retention window
// into the reason so the stats report shows which policy applied.
const (
	ArchiveReasonManual = "manual_request"
)

// ArchiveEntry wraps an assignment snapshot at the moment it left the
// active collection.
type ArchiveEntry struct {
	// OriginalData is the full assignment as it was when archived. Restore
	// moves exactly this record back to the active collection.
	OriginalData Assignment `json:"original_data"`
	ArchivedDate time.Time  `json:"archived_date"`
	// ArchiveReason is e.g. "completed_30_days" or "manual_request".
	ArchiveReason string `json:"archive_reason"`
	// CompletionDate is the timestamp the eligibility check used, i.e. the
	// assignment's last_updated at archive time.
	CompletionDate time.Time `json:"completion_date"`
	// Title and CourseCode are denormalized for index readability and for
	// lookups that must not require loading OriginalData.
	Title      string `json:"title"`
	CourseCode string `json:"course_code,omitempty"`
}

// ArchiveData is the persisted archive container.
type ArchiveData struct {
	CreatedDate   time.Time      `json:"created_date"`
	LastCleanup   *time.Time     `json:"last_cleanup"`
	TotalArchived int            `json:"total_archived"`
	Assignments   []ArchiveEntry `json:"assignments"`
}

// NewArchiveData returns an empty archive container.
func NewArchiveData() ArchiveData {
	return ArchiveData{
		CreatedDate: time.Now().UTC(),
		Assignments: []ArchiveEntry{},
	}
}
