package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samjoshuadud/automation-notion/models"
)

func TestTodoistFetchStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v2/tasks", r.URL.Path)
		assert.Equal(t, "proj-9", r.URL.Query().Get("project_id"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "1", "content": "Homework 3 (MATH2)", "is_completed": false},
			{"id": "2", "content": "Final Reflection", "is_completed": true},
			{"id": "3", "content": "", "is_completed": false}
		]`))
	}))
	defer server.Close()

	client := NewTodoistClient(TodoistClientOptions{
		BaseURL:   server.URL,
		Token:     "secret",
		ProjectID: "proj-9",
	})

	statuses, err := client.FetchStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2, "tasks without content are skipped")

	assert.Equal(t, "Homework 3", statuses[0].Title)
	assert.Equal(t, "MATH2", statuses[0].CourseCode)
	assert.Equal(t, models.StatusPending, statuses[0].Status)

	assert.Equal(t, "Final Reflection", statuses[1].Title)
	assert.Equal(t, "", statuses[1].CourseCode)
	assert.Equal(t, models.StatusCompleted, statuses[1].Status)
}

func TestTodoistCreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v2/tasks", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Homework 3 (MATH2)", payload["content"])
		assert.Equal(t, "proj-9", payload["project_id"])
		assert.Equal(t, "2026-04-15", payload["due_date"])

		_, _ = w.Write([]byte(`{"id": "42"}`))
	}))
	defer server.Close()

	client := NewTodoistClient(TodoistClientOptions{
		BaseURL:   server.URL,
		Token:     "secret",
		ProjectID: "proj-9",
	})

	err := client.CreateTask(context.Background(), models.Assignment{
		Title:      "Homework 3",
		Course:     "Math",
		CourseCode: "MATH2",
		DueDate:    "2026-04-15",
		Status:     models.StatusPending,
	})
	require.NoError(t, err)
}

func TestParseTaskContent(t *testing.T) {
	tests := []struct {
		content    string
		wantTitle  string
		wantCourse string
	}{
		{"Homework 3 (MATH2)", "Homework 3", "MATH2"},
		{"Plain Title", "Plain Title", ""},
		{"Weird (nested (x))", "Weird (nested (x))", ""},
		{"(ONLY)", "(ONLY)", ""},
	}
	for _, tt := range tests {
		title, course := parseTaskContent(tt.content)
		assert.Equal(t, tt.wantTitle, title, tt.content)
		assert.Equal(t, tt.wantCourse, course, tt.content)
	}
}
