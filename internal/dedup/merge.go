package dedup

import (
	"time"

	"github.com/samjoshuadud/automation-notion/models"
)

// FieldChange records one field adopted from a candidate during a merge.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// MergeResult is the outcome of merging a candidate into an existing record.
type MergeResult struct {
	Updated models.Assignment
	Changes []FieldChange
}

// Changed reports whether the merge adopted anything from the candidate.
func (r MergeResult) Changed() bool {
	return len(r.Changes) > 0
}

// Merge folds a candidate observation into the existing record. Non-empty
// candidate fields that differ are adopted and recorded as FieldChanges.
// Status only moves forward here: a re-scrape must not un-complete an
// assignment. Downgrades belong to the status reconciler, which calls
// ApplyStatus instead.
func Merge(existing, candidate models.Assignment, now time.Time) MergeResult {
	updated := existing
	var changes []FieldChange

	adopt := func(field, oldVal, newVal string, set func(string)) {
		if newVal != "" && newVal != oldVal {
			set(newVal)
			changes = append(changes, FieldChange{Field: field, Old: oldVal, New: newVal})
		}
	}

	adopt("title", existing.Title, candidate.Title, func(v string) {
		updated.Title = v
		updated.TitleNormalized = NormalizeTitle(v)
	})
	adopt("due_date", existing.DueDate, candidate.DueDate, func(v string) { updated.DueDate = v })
	adopt("course", existing.Course, candidate.Course, func(v string) { updated.Course = v })
	adopt("course_code", existing.CourseCode, candidate.CourseCode, func(v string) { updated.CourseCode = v })

	if candidate.Status != "" && candidate.Status != existing.Status &&
		!statusDowngrade(existing.Status, candidate.Status) {
		changes = append(changes, FieldChange{Field: "status", Old: string(existing.Status), New: string(candidate.Status)})
		updated.Status = candidate.Status
	}

	if candidate.RawTitle != "" && candidate.RawTitle != existing.RawTitle {
		// Audit trail only; not a reported change.
		updated.RawTitle = candidate.RawTitle
	}
	// Origin identity is written once: a record created from a scrape can
	// later be claimed by the email that announced it, but an identity is
	// never replaced.
	if existing.EmailID == "" && candidate.EmailID != "" {
		changes = append(changes, FieldChange{Field: "email_id", Old: "", New: candidate.EmailID})
		updated.EmailID = candidate.EmailID
	}

	if len(changes) > 0 {
		updated.LastUpdated = monotonic(existing.LastUpdated, now)
	}
	return MergeResult{Updated: updated, Changes: changes}
}

// ApplyStatus sets a status reported by a remote service. Unlike Merge,
// this path is allowed to move Completed back to Pending or In Progress:
// it reflects the user's own action on the remote platform.
func ApplyStatus(existing models.Assignment, status models.AssignmentStatus, now time.Time) MergeResult {
	updated := existing
	var changes []FieldChange
	if status != "" && status != existing.Status {
		changes = append(changes, FieldChange{Field: "status", Old: string(existing.Status), New: string(status)})
		updated.Status = status
		updated.LastUpdated = monotonic(existing.LastUpdated, now)
	}
	return MergeResult{Updated: updated, Changes: changes}
}

// statusDowngrade reports whether moving from to would walk the status
// backwards (Completed → Pending/In Progress, In Progress → Pending).
func statusDowngrade(from, to models.AssignmentStatus) bool {
	return statusRank(to) < statusRank(from)
}

func statusRank(s models.AssignmentStatus) int {
	switch s {
	case models.StatusInProgress:
		return 1
	case models.StatusCompleted:
		return 2
	}
	return 0
}

// monotonic guards the last_updated invariant: it never moves backwards
// even if the caller's clock does.
func monotonic(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

// Summary accumulates per-run ingest outcomes for reporting.
type Summary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Restored  int `json:"restored"`
	Skipped   int `json:"skipped"`
	// Ambiguous counts fuzzy matches refused because two candidates scored
	// within the ambiguity band. Those candidates were treated as new, so
	// they are already in Created and excluded from Total.
	Ambiguous int `json:"ambiguous,omitempty"`
}

// Total returns the number of candidates the summary covers.
func (s Summary) Total() int {
	return s.Created + s.Updated + s.Unchanged + s.Restored + s.Skipped
}
