package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/store"
)

func setupIngestor(t *testing.T) (*Ingestor, store.AssignmentStore, *archive.Manager) {
	t.Helper()
	dir := t.TempDir()

	s := store.NewFileAssignmentStore()
	require.NoError(t, s.Initialize(map[string]string{
		"dataFile":       filepath.Join(dir, "assignments.json"),
		"dataFileFormat": "json",
	}))
	t.Cleanup(func() { _ = s.Close() })

	as := store.NewFileArchiveStore()
	require.NoError(t, as.Initialize(map[string]string{
		"archiveFile": filepath.Join(dir, "assignments_archive.json"),
	}))
	t.Cleanup(func() { _ = as.Close() })

	m := archive.NewManager(s, as)
	ing := NewIngestor(s, m)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }
	ing.Now = func() time.Time { return now }
	return ing, s, m
}

func TestIngestCreatesNewAssignments(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Homework 3", Course: "Math", CourseCode: "MATH2", EmailID: "msg-100"},
		{Title: "Essay Draft", Course: "Writing", CourseCode: "WR1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Created)

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, a := range active {
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, models.StatusPending, a.Status)
		assert.Equal(t, "moodle", a.Source)
	}
}

func TestIngestSameEmailIDTwiceIsOneRecord(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	first, err := ing.Ingest([]models.Assignment{
		{Title: "Homework 3", Course: "Math", CourseCode: "MATH2", EmailID: "msg-100"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Summary.Created)

	// Same email arrives again with a reworded title.
	second, err := ing.Ingest([]models.Assignment{
		{Title: "HW 3 - Updated", Course: "Math", CourseCode: "MATH2", EmailID: "msg-100"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Summary.Created)
	assert.Equal(t, 1, second.Summary.Updated)

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "HW 3 - Updated", active[0].Title)
	assert.Equal(t, "msg-100", active[0].EmailID)
}

func TestIngestUnchangedResend(t *testing.T) {
	ing, _, _ := setupIngestor(t)

	batch := []models.Assignment{
		{Title: "Quiz 4", Course: "Math", CourseCode: "MATH2", EmailID: "msg-4", DueDate: "2026-05-20"},
	}
	_, err := ing.Ingest(batch)
	require.NoError(t, err)

	report, err := ing.Ingest(batch)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Unchanged)
	assert.Equal(t, 0, report.Summary.Updated)
}

func TestIngestFuzzyMatchWithinCourse(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	_, err := ing.Ingest([]models.Assignment{
		{Title: "Activity 1 - User Story Mapping", Course: "HCI", CourseCode: "HCI300"},
	})
	require.NoError(t, err)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Activity 1 - User Story Maping", Course: "HCI", CourseCode: "HCI300", DueDate: "2026-05-10"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Updated, "near-identical retitle merges instead of duplicating")

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "2026-05-10", active[0].DueDate)
}

func TestIngestSameTitleDifferentCourses(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Activity 1", Course: "Math", CourseCode: "MATH2"},
		{Title: "Activity 1", Course: "HCI", CourseCode: "HCI300"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Created, "same title in different courses stays distinct")

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestIngestSkipsInvalidCandidates(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "   ", Course: "Math"},
		{Title: "Valid One", Course: "Math", CourseCode: "MATH2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Equal(t, 1, report.Summary.Created)

	require.Len(t, report.Items, 2)
	assert.Equal(t, OutcomeSkipped, report.Items[0].Outcome)
	assert.Error(t, report.Items[0].Err)

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestIngestRestoresArchivedMatch(t *testing.T) {
	ing, s, m := setupIngestor(t)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	created, err := s.CreateAssignment(models.Assignment{
		Title: "Group Project", Course: "SE", CourseCode: "SE101",
		Status: models.StatusCompleted, Source: "moodle", EmailID: "msg-55",
		LastUpdated: now.AddDate(0, 0, -40),
	})
	require.NoError(t, err)
	_, err = m.CleanupCompleted()
	require.NoError(t, err)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Group Project", Course: "SE", CourseCode: "SE101", EmailID: "msg-55"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Restored)
	assert.Equal(t, 0, report.Summary.Created)

	got, err := s.GetAssignment(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestBatchInternalDuplicate(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Homework 3", Course: "Math", CourseCode: "MATH2", EmailID: "msg-100"},
		{Title: "Homework 3", Course: "Math", CourseCode: "MATH2", EmailID: "msg-100"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Unchanged)

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestIngestBatchDuplicateOfSecondNewRecord(t *testing.T) {
	ing, s, _ := setupIngestor(t)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Essay Draft", Course: "Writing", CourseCode: "WR1", EmailID: "msg-A"},
		{Title: "Homework 3", Course: "Math", CourseCode: "MATH2", EmailID: "msg-B"},
		{Title: "Homework 3 (revised)", Course: "Math", CourseCode: "MATH2", EmailID: "msg-B", DueDate: "2026-05-10"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Updated)

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	require.Len(t, active, 2)

	byEmail := make(map[string]models.Assignment, len(active))
	for _, a := range active {
		byEmail[a.EmailID] = a
	}
	// The merge must land on the record it matched, not on whichever
	// staged record happened to be created first.
	assert.Equal(t, "Essay Draft", byEmail["msg-A"].Title)
	assert.Empty(t, byEmail["msg-A"].DueDate)
	assert.Equal(t, "Homework 3 (revised)", byEmail["msg-B"].Title)
	assert.Equal(t, "2026-05-10", byEmail["msg-B"].DueDate)
}

func TestIngestAmbiguousMatchCountedAndTreatedAsNew(t *testing.T) {
	ing, s, _ := setupIngestor(t)
	ing.Matcher.AmbiguityBand = 0.2 // widen so two distinct scores land inside it

	_, err := s.CreateAssignment(models.Assignment{
		Title: "Activity 1 - Usr Story", Course: "HCI", CourseCode: "HCI300",
		Status: models.StatusPending, Source: "moodle",
	})
	require.NoError(t, err)
	_, err = s.CreateAssignment(models.Assignment{
		Title: "Activity 1 - User Storyy", Course: "HCI", CourseCode: "HCI300",
		Status: models.StatusPending, Source: "moodle",
	})
	require.NoError(t, err)

	report, err := ing.Ingest([]models.Assignment{
		{Title: "Activity 1 - User Story", Course: "HCI", CourseCode: "HCI300"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Ambiguous)
	assert.Equal(t, 1, report.Summary.Created, "refused match falls through to create")

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestLoadCandidatesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"assignments": [
			{"title": "Homework 3", "course": "Math", "course_code": "MATH2", "email_id": "msg-100"}
		]
	}`), 0o644))

	candidates, err := LoadCandidates(path)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Homework 3", candidates[0].Title)
	assert.Equal(t, "msg-100", candidates[0].EmailID)
}

func TestLoadCandidatesBareArrayAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"title": "A", "course_code": "C1"}]`), 0o644))
	candidates, err := LoadCandidates(jsonPath)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].Title)

	yamlPath := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("assignments:\n  - title: B\n    course_code: C2\n"), 0o644))
	candidates, err = LoadCandidates(yamlPath)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "C2", candidates[0].CourseCode)
}

func TestLoadCandidatesUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := LoadCandidates(path)
	require.Error(t, err)
}

func TestIngestDryRunWritesNothing(t *testing.T) {
	ing, s, m := setupIngestor(t)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	_, err := s.CreateAssignment(models.Assignment{
		Title: "Old Quiz", Course: "Math", CourseCode: "MATH2",
		Status: models.StatusCompleted, Source: "moodle", EmailID: "msg-9",
		LastUpdated: now.AddDate(0, 0, -40),
	})
	require.NoError(t, err)
	_, err = m.CleanupCompleted()
	require.NoError(t, err)

	ing.DryRun = true
	report, err := ing.Ingest([]models.Assignment{
		{Title: "Brand New", Course: "Writing", CourseCode: "WR1"},
		{Title: "Old Quiz", Course: "Math", CourseCode: "MATH2", EmailID: "msg-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Restored)

	active, err := s.ListAssignments(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, active)

	entries, err := m.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
