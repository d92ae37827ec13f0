package sync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/models"
)

const (
	defaultNotionBaseURL = "https://api.notion.com"
	notionAPIVersion     = "2022-06-28"
)

// titleProperties are the database title columns checked in order; user
// databases name the column differently depending on the template they
// started from.
var titleProperties = []string{"Assignment", "Task name", "Title", "Name"}

// NotionClientOptions configures a Notion database client.
type NotionClientOptions struct {
	BaseURL    string
	Token      string
	DatabaseID string
	HTTPClient *http.Client
}

// NotionClient reads and writes assignments in a Notion database. It
// implements StatusSource.
type NotionClient struct {
	http       *httpClient
	databaseID string
}

// NewNotionClient builds a client for one Notion database.
func NewNotionClient(opts NotionClientOptions) *NotionClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultNotionBaseURL
	}
	return &NotionClient{
		http: newHTTPClient(baseURL, opts.Token, opts.HTTPClient, map[string]string{
			"Notion-Version": notionAPIVersion,
		}),
		databaseID: opts.DatabaseID,
	}
}

// Name implements StatusSource.
func (c *NotionClient) Name() string { return "notion" }

type notionRichText struct {
	PlainText string `json:"plain_text,omitempty"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

type notionProperty struct {
	Title    []notionRichText `json:"title,omitempty"`
	RichText []notionRichText `json:"rich_text,omitempty"`
	Select   *struct {
		Name string `json:"name"`
	} `json:"select,omitempty"`
	Date *struct {
		Start string `json:"start"`
	} `json:"date,omitempty"`
}

type notionPage struct {
	ID         string                    `json:"id"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionQueryResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

// FetchStatuses pages through the database and returns every row that
// carries a title, mapping its Status select to a local status.
func (c *NotionClient) FetchStatuses(ctx context.Context) ([]RemoteStatus, error) {
	if c.databaseID == "" {
		return nil, fmt.Errorf("notion database id is not configured")
	}
	path := fmt.Sprintf("/v1/databases/%s/query", c.databaseID)

	var statuses []RemoteStatus
	cursor := ""
	for {
		payload := map[string]any{"page_size": 100}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}
		var resp notionQueryResponse
		if err := c.http.doJSON(ctx, http.MethodPost, path, payload, &resp); err != nil {
			return nil, fmt.Errorf("query notion database: %w", err)
		}

		for _, page := range resp.Results {
			rs, ok := pageToStatus(page)
			if !ok {
				logrus.Debugf("Skipping Notion page %s: no recognizable title property", page.ID)
				continue
			}
			statuses = append(statuses, rs)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	logrus.Debugf("Fetched %d assignment statuses from Notion", len(statuses))
	return statuses, nil
}

func pageToStatus(page notionPage) (RemoteStatus, bool) {
	title := ""
	for _, name := range titleProperties {
		prop, ok := page.Properties[name]
		if !ok || len(prop.Title) == 0 {
			continue
		}
		title = richTextPlain(prop.Title)
		if title != "" {
			break
		}
	}
	if title == "" {
		return RemoteStatus{}, false
	}

	status := models.StatusPending
	if prop, ok := page.Properties["Status"]; ok && prop.Select != nil {
		if parsed, err := models.ParseStatus(prop.Select.Name); err == nil {
			status = parsed
		}
	}

	courseCode := ""
	if prop, ok := page.Properties["Course Code"]; ok {
		courseCode = richTextPlain(prop.RichText)
	}

	return RemoteStatus{Title: title, CourseCode: courseCode, Status: status}, true
}

func richTextPlain(parts []notionRichText) string {
	out := ""
	for _, p := range parts {
		if p.PlainText != "" {
			out += p.PlainText
		} else {
			out += p.Text.Content
		}
	}
	return out
}

// CreatePage adds one assignment as a database row. Status, course code
// and due date become properties when present.
func (c *NotionClient) CreatePage(ctx context.Context, a models.Assignment) error {
	if c.databaseID == "" {
		return fmt.Errorf("notion database id is not configured")
	}

	title := a.Title
	if len(title) > 100 {
		title = title[:100] // Notion title limit
	}
	properties := map[string]any{
		"Assignment": map[string]any{
			"title": []map[string]any{
				{"text": map[string]string{"content": title}},
			},
		},
		"Status": map[string]any{
			"select": map[string]string{"name": string(a.Status)},
		},
	}
	if a.CourseCode != "" {
		properties["Course Code"] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": a.CourseCode}},
			},
		}
	}
	if a.DueDate != "" {
		properties["Due Date"] = map[string]any{
			"date": map[string]string{"start": a.DueDate},
		}
	}

	payload := map[string]any{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": properties,
	}
	if err := c.http.doJSON(ctx, http.MethodPost, "/v1/pages", payload, nil); err != nil {
		return fmt.Errorf("create notion page: %w", err)
	}
	logrus.Infof("Created Notion page for assignment: %s", a.Title)
	return nil
}

// Push implements TaskPusher.
func (c *NotionClient) Push(ctx context.Context, a models.Assignment) error {
	return c.CreatePage(ctx, a)
}
