package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/store"
	"github.com/samjoshuadud/automation-notion/types"
)

// Reconciler applies remote platform statuses to the local collections.
// It is the only path allowed to move a record's status backwards, and it
// revives archived assignments when a platform reports them active again.
type Reconciler struct {
	Store   store.AssignmentStore
	Archive *archive.Manager
	// Now is the clock stamped on changed records; tests substitute it.
	Now func() time.Time
}

// NewReconciler wires a reconciler over the two collections.
func NewReconciler(s store.AssignmentStore, m *archive.Manager) *Reconciler {
	return &Reconciler{Store: s, Archive: m, Now: time.Now}
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Result summarizes one reconciliation run.
type Result struct {
	Updated       int `json:"updated_count"`
	Restored      int `json:"restored_count"`
	TotalActive   int `json:"total_active"`
	TotalArchived int `json:"total_archived"`
}

// ReconcileSource fetches a platform's statuses and reconciles them.
func (r *Reconciler) ReconcileSource(ctx context.Context, source StatusSource) (Result, error) {
	logrus.Infof("Syncing assignment status from %s", source.Name())
	statuses, err := source.FetchStatuses(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch statuses from %s: %w", source.Name(), err)
	}
	return r.Reconcile(statuses)
}

// Reconcile applies a batch of remote statuses. Active records are matched
// by identity first, then by normalized title scoped to the course. Records
// found only in the archive are restored when the platform reports them
// anything other than Completed. When two signals target the same record
// with different statuses, the last one wins and the conflict is logged.
// All active-collection changes are persisted in a single write.
func (r *Reconciler) Reconcile(statuses []RemoteStatus) (Result, error) {
	now := r.now()

	active, err := r.Store.ListAssignments(nil, nil)
	if err != nil {
		return Result{}, fmt.Errorf("load active assignments: %w", err)
	}

	staged := make([]models.Assignment, len(active))
	copy(staged, active)

	// applied remembers the status each record received this run so a
	// conflicting later signal can be reported.
	applied := make(map[string]models.AssignmentStatus)
	changed := false
	var result Result

	for _, rs := range statuses {
		if rs.Status == "" {
			continue
		}

		idx := r.findStaged(staged, rs)
		if idx >= 0 {
			current := staged[idx]
			if prev, ok := applied[current.ID]; ok && prev != rs.Status {
				logrus.Warnf("Conflicting remote statuses for %q: %s then %s; applying the latest", current.Title, prev, rs.Status)
			}
			if current.Status != rs.Status {
				merged := dedup.ApplyStatus(current, rs.Status, now)
				staged[idx] = merged.Updated
				if _, seen := applied[current.ID]; !seen {
					result.Updated++
				}
				changed = true
				logrus.Infof("Updated status for %s: %s", current.Title, rs.Status)
			}
			applied[current.ID] = rs.Status
			continue
		}

		// Not active: a non-completed remote status revives an archived
		// record.
		if rs.Status == models.StatusCompleted {
			continue
		}
		entry, err := r.Archive.PopEntry(rs.Identifier, rs.Title, rs.CourseCode)
		if err != nil {
			var notFound *types.NotFoundError
			if errors.As(err, &notFound) {
				logrus.Debugf("Remote status for unknown assignment %q ignored", rs.Title)
				continue
			}
			return Result{}, err
		}

		restored := entry.OriginalData
		restored.Status = rs.Status
		restored.LastUpdated = now
		staged = append(staged, restored)
		applied[restored.ID] = rs.Status
		changed = true
		result.Restored++
		logrus.Infof("Restored and updated %s: %s", restored.Title, rs.Status)
	}

	if changed {
		if err := r.Store.ReplaceAll(staged); err != nil {
			return Result{}, fmt.Errorf("persist reconciled assignments: %w", err)
		}
	}

	result.TotalActive = len(staged)
	if entries, err := r.Archive.Entries(); err == nil {
		result.TotalArchived = len(entries)
	}
	return result, nil
}

// findStaged locates the staged record a remote status refers to: stable
// identifier first, then normalized title constrained to the same course
// when the platform reported one.
func (r *Reconciler) findStaged(staged []models.Assignment, rs RemoteStatus) int {
	if rs.Identifier != "" {
		for i, a := range staged {
			if a.ID == rs.Identifier || (a.EmailID != "" && a.EmailID == rs.Identifier) {
				return i
			}
		}
	}
	if rs.Title == "" {
		return -1
	}
	sig := dedup.NormalizeTitle(rs.Title)
	scope := dedup.NormalizeCourse(rs.CourseCode)
	for i, a := range staged {
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
