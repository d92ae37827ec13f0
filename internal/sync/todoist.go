package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/models"
)

const defaultTodoistBaseURL = "https://api.todoist.com"

// TodoistClientOptions configures a Todoist client.
type TodoistClientOptions struct {
	BaseURL    string
	Token      string
	ProjectID  string
	HTTPClient *http.Client
}

// TodoistClient reads and writes assignment tasks in a Todoist project.
// It implements StatusSource.
type TodoistClient struct {
	http      *httpClient
	projectID string
}

// NewTodoistClient builds a client for one Todoist project.
func NewTodoistClient(opts TodoistClientOptions) *TodoistClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultTodoistBaseURL
	}
	return &TodoistClient{
		http:      newHTTPClient(baseURL, opts.Token, opts.HTTPClient, nil),
		projectID: opts.ProjectID,
	}
}

// Name implements StatusSource.
func (c *TodoistClient) Name() string { return "todoist" }

type todoistTask struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// FetchStatuses lists the project's tasks. Todoist only distinguishes open
// from completed, so open tasks report Pending and checked-off tasks report
// Completed; finer-grained state stays whatever the local record says.
func (c *TodoistClient) FetchStatuses(ctx context.Context) ([]RemoteStatus, error) {
	path := "/rest/v2/tasks"
	if c.projectID != "" {
		path += "?project_id=" + url.QueryEscape(c.projectID)
	}

	var tasks []todoistTask
	if err := c.http.doJSON(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, fmt.Errorf("list todoist tasks: %w", err)
	}

	statuses := make([]RemoteStatus, 0, len(tasks))
	for _, task := range tasks {
		title, courseCode := parseTaskContent(task.Content)
		if title == "" {
			continue
		}
		status := models.StatusPending
		if task.IsCompleted {
			status = models.StatusCompleted
		}
		statuses = append(statuses, RemoteStatus{
			Title:      title,
			CourseCode: courseCode,
			Status:     status,
		})
	}
	logrus.Debugf("Fetched %d assignment statuses from Todoist", len(statuses))
	return statuses, nil
}

// parseTaskContent undoes the "Title (COURSE)" formatting used when tasks
// are pushed to Todoist.
func parseTaskContent(content string) (title, courseCode string) {
	content = strings.TrimSpace(content)
	if strings.HasSuffix(content, ")") {
		if open := strings.LastIndex(content, "("); open > 0 {
			code := strings.TrimSpace(content[open+1 : len(content)-1])
			if code != "" && !strings.ContainsAny(code, "()") {
				return strings.TrimSpace(content[:open]), code
			}
		}
	}
	return content, ""
}

// CreateTask adds one assignment to the project as an open task.
func (c *TodoistClient) CreateTask(ctx context.Context, a models.Assignment) error {
	content := a.Title
	if a.CourseCode != "" {
		content = fmt.Sprintf("%s (%s)", a.Title, a.CourseCode)
	}
	payload := map[string]any{
		"content":     content,
		"description": a.Course,
	}
	if c.projectID != "" {
		payload["project_id"] = c.projectID
	}
	if a.DueDate != "" {
		payload["due_date"] = a.DueDate
	}

	if err := c.http.doJSON(ctx, http.MethodPost, "/rest/v2/tasks", payload, nil); err != nil {
		return fmt.Errorf("create todoist task: %w", err)
	}
	logrus.Infof("Created Todoist task for assignment: %s", a.Title)
	return nil
}

// Push implements TaskPusher.
func (c *TodoistClient) Push(ctx context.Context, a models.Assignment) error {
	return c.CreateTask(ctx, a)
}
