package sync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/models"
)

// PushResult summarizes one push run against one platform.
type PushResult struct {
	Created int `json:"created_count"`
	Present int `json:"present_count"`
	Failed  int `json:"failed_count"`
}

// PushAssignments creates every assignment the platform does not already
// track. Presence is decided by normalized title scoped to the course, the
// same key the reconciler matches on, so a pushed record is found again on
// the next reconcile. Individual create failures are logged and counted;
// they do not abort the rest of the batch.
func PushAssignments(ctx context.Context, pusher TaskPusher, assignments []models.Assignment) (PushResult, error) {
	remote, err := pusher.FetchStatuses(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("fetch existing %s tasks: %w", pusher.Name(), err)
	}

	type key struct{ title, course string }
	present := make(map[key]bool, len(remote))
	for _, rs := range remote {
		present[key{dedup.NormalizeTitle(rs.Title), dedup.NormalizeCourse(rs.CourseCode)}] = true
	}

	var result PushResult
	for _, a := range assignments {
		k := key{dedup.NormalizeTitle(a.Title), dedup.NormalizeCourse(a.CourseCode)}
		if present[k] {
			result.Present++
			continue
		}
		if err := pusher.Push(ctx, a); err != nil {
			result.Failed++
			logrus.Errorf("Failed to push %q to %s: %v", a.Title, pusher.Name(), err)
			continue
		}
		present[k] = true
		result.Created++
	}

	logrus.Infof("%s push: %d created, %d already present, %d failed",
		pusher.Name(), result.Created, result.Present, result.Failed)
	return result, nil
}
