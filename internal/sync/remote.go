// Package sync pulls assignment status from external task platforms and
// reconciles it into the local collections. Remote platforms are the one
// authority allowed to move a status backwards, including reviving an
// assignment that had already been archived as completed.
package sync

import (
	"context"

	"github.com/samjoshuadud/automation-notion/models"
)

// RemoteStatus is one platform's view of an assignment's state.
type RemoteStatus struct {
	// Identifier is a stable key when the platform stored one (the local
	// record ID or origin email ID). Often empty: most platforms only echo
	// the title back.
	Identifier string                  `json:"identifier,omitempty"`
	Title      string                  `json:"title"`
	CourseCode string                  `json:"course_code,omitempty"`
	Status     models.AssignmentStatus `json:"status"`
}

// StatusSource is a platform the reconciler can poll for statuses.
type StatusSource interface {
	// Name identifies the platform in logs and conflict reports.
	Name() string
	// FetchStatuses returns the platform's current view of every tracked
	// assignment.
	FetchStatuses(ctx context.Context) ([]RemoteStatus, error)
}

// TaskPusher is a platform that can also receive assignments.
type TaskPusher interface {
	StatusSource
	// Push creates the assignment on the platform.
	Push(ctx context.Context, a models.Assignment) error
}
