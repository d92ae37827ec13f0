package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samjoshuadud/automation-notion/models"
)

func TestMerge_AdoptsChangedFields(t *testing.T) {
	existing := assignment("a", "ACTIVITY 1 - USER STORY", "HCI", "HCI", "100")
	candidate := models.Assignment{
		Title:      "Activity 1 (User Story)",
		Course:     "HCI",
		CourseCode: "HCI",
		DueDate:    "2025-09-10",
		Status:     models.StatusPending,
		EmailID:    "100",
	}
	now := existing.LastUpdated.Add(time.Hour)

	res := Merge(existing, candidate, now)
	require.True(t, res.Changed())

	fields := make(map[string]FieldChange)
	for _, c := range res.Changes {
		fields[c.Field] = c
	}
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "due_date")
	assert.Equal(t, "ACTIVITY 1 - USER STORY", fields["title"].Old)
	assert.Equal(t, "Activity 1 (User Story)", fields["title"].New)

	assert.Equal(t, "Activity 1 (User Story)", res.Updated.Title)
	assert.Equal(t, NormalizeTitle("Activity 1 (User Story)"), res.Updated.TitleNormalized)
	assert.Equal(t, "2025-09-10", res.Updated.DueDate)
	assert.Equal(t, now, res.Updated.LastUpdated)
}

func TestMerge_EmptyCandidateFieldsIgnored(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "100")
	existing.DueDate = "2025-09-10"
	candidate := models.Assignment{Title: "Activity 1", Status: models.StatusPending}

	res := Merge(existing, candidate, existing.LastUpdated.Add(time.Hour))
	assert.False(t, res.Changed())
	assert.Equal(t, existing.DueDate, res.Updated.DueDate)
	assert.Equal(t, existing.LastUpdated, res.Updated.LastUpdated, "no-op merge must not advance last_updated")
}

func TestMerge_NeverDowngradesCompleted(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "100")
	existing.Status = models.StatusCompleted
	candidate := models.Assignment{Title: "Activity 1", Status: models.StatusPending}

	res := Merge(existing, candidate, existing.LastUpdated.Add(time.Hour))
	assert.Equal(t, models.StatusCompleted, res.Updated.Status,
		"re-scrape with default status must not un-complete an assignment")
	assert.False(t, res.Changed())
}

func TestMerge_UpgradesStatus(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "100")
	candidate := models.Assignment{Title: "Activity 1", Status: models.StatusCompleted}

	res := Merge(existing, candidate, existing.LastUpdated.Add(time.Hour))
	require.True(t, res.Changed())
	assert.Equal(t, models.StatusCompleted, res.Updated.Status)
}

func TestMerge_IdentityWrittenOnce(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "")
	candidate := models.Assignment{Title: "Activity 1", Status: models.StatusPending, EmailID: "42"}

	res := Merge(existing, candidate, existing.LastUpdated.Add(time.Hour))
	assert.Equal(t, "42", res.Updated.EmailID)

	// A later observation with a different identity must not replace it.
	later := models.Assignment{Title: "Activity 1", Status: models.StatusPending, EmailID: "43"}
	res2 := Merge(res.Updated, later, res.Updated.LastUpdated.Add(time.Hour))
	assert.Equal(t, "42", res2.Updated.EmailID)
}

func TestMerge_LastUpdatedMonotonic(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "100")
	candidate := models.Assignment{Title: "Activity 1", DueDate: "2025-09-10", Status: models.StatusPending}

	// Clock skew: "now" earlier than the record's last_updated.
	past := existing.LastUpdated.Add(-time.Hour)
	res := Merge(existing, candidate, past)
	require.True(t, res.Changed())
	assert.False(t, res.Updated.LastUpdated.Before(existing.LastUpdated))
}

func TestApplyStatus_ReconcilerMayDowngrade(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "100")
	existing.Status = models.StatusCompleted
	now := existing.LastUpdated.Add(time.Hour)

	res := ApplyStatus(existing, models.StatusInProgress, now)
	require.True(t, res.Changed())
	assert.Equal(t, models.StatusInProgress, res.Updated.Status)
	assert.Equal(t, now, res.Updated.LastUpdated)
}

func TestApplyStatus_NoChangeIsNoOp(t *testing.T) {
	existing := assignment("a", "Activity 1", "HCI", "HCI", "100")
	res := ApplyStatus(existing, models.StatusPending, existing.LastUpdated.Add(time.Hour))
	assert.False(t, res.Changed())
	assert.Equal(t, existing.LastUpdated, res.Updated.LastUpdated)
}
