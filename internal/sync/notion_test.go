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

func TestNotionFetchStatusesPaginates(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/databases/db-1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, notionAPIVersion, r.Header.Get("Notion-Version"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			assert.Nil(t, payload["start_cursor"])
			_, _ = w.Write([]byte(`{
				"results": [
					{"id": "p1", "properties": {
						"Assignment": {"title": [{"plain_text": "Homework 3"}]},
						"Status": {"select": {"name": "In Progress"}},
						"Course Code": {"rich_text": [{"plain_text": "MATH2"}]}
					}}
				],
				"has_more": true,
				"next_cursor": "cursor-2"
			}`))
			return
		}
		assert.Equal(t, "cursor-2", payload["start_cursor"])
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": "p2", "properties": {
					"Name": {"title": [{"plain_text": "Quiz 4"}]},
					"Status": {"select": {"name": "Completed"}}
				}},
				{"id": "p3", "properties": {
					"Status": {"select": {"name": "Pending"}}
				}}
			],
			"has_more": false
		}`))
	}))
	defer server.Close()

	client := NewNotionClient(NotionClientOptions{
		BaseURL:    server.URL,
		Token:      "secret",
		DatabaseID: "db-1",
	})

	statuses, err := client.FetchStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2, "pages without a title property are skipped")
	assert.Equal(t, 2, calls)

	assert.Equal(t, "Homework 3", statuses[0].Title)
	assert.Equal(t, "MATH2", statuses[0].CourseCode)
	assert.Equal(t, models.StatusInProgress, statuses[0].Status)

	assert.Equal(t, "Quiz 4", statuses[1].Title)
	assert.Equal(t, models.StatusCompleted, statuses[1].Status)
}

func TestNotionFetchStatusesRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [], "has_more": false}`))
	}))
	defer server.Close()

	client := NewNotionClient(NotionClientOptions{
		BaseURL:    server.URL,
		Token:      "secret",
		DatabaseID: "db-1",
	})

	statuses, err := client.FetchStatuses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, statuses)
	assert.Equal(t, 2, calls)
}

func TestNotionCreatePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		parent := payload["parent"].(map[string]any)
		assert.Equal(t, "db-1", parent["database_id"])

		props := payload["properties"].(map[string]any)
		assert.Contains(t, props, "Assignment")
		assert.Contains(t, props, "Status")
		assert.Contains(t, props, "Due Date")

		_, _ = w.Write([]byte(`{"id": "new-page"}`))
	}))
	defer server.Close()

	client := NewNotionClient(NotionClientOptions{
		BaseURL:    server.URL,
		Token:      "secret",
		DatabaseID: "db-1",
	})

	err := client.CreatePage(context.Background(), models.Assignment{
		Title:      "Homework 3",
		Course:     "Math",
		CourseCode: "MATH2",
		DueDate:    "2026-04-15",
		Status:     models.StatusPending,
	})
	require.NoError(t, err)
}

func TestNotionFetchStatusesRequiresDatabase(t *testing.T) {
	client := NewNotionClient(NotionClientOptions{Token: "secret"})
	_, err := client.FetchStatuses(context.Background())
	require.Error(t, err)
}
