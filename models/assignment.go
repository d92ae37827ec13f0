package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// AssignmentStatus represents the possible statuses of an assignment.
// The values match what the Notion/Todoist sync layers expect on the wire.
type AssignmentStatus string

const (
	StatusPending    AssignmentStatus = "Pending"
	StatusInProgress AssignmentStatus = "In Progress"
	StatusCompleted  AssignmentStatus = "Completed"
)

// ParseStatus maps a raw status string onto the known enum. It tolerates
// case and separator noise ("in-progress", "IN PROGRESS") because scraped
// records arrive with whatever formatting the source page used.
func ParseStatus(s string) (AssignmentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = strings.ReplaceAll(normalized, "_", " ")
	switch normalized {
	case "pending", "todo", "not started":
		return StatusPending, nil
	case "in progress", "doing", "started":
		return StatusInProgress, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Assignment is the central entity: one record per real-world assignment.
// JSON tags follow the layout of data/assignments.json so state written by
// earlier versions of the tool loads unchanged.
type Assignment struct {
	ID string `json:"id" yaml:"id" toml:"id" validate:"omitempty,uuid4"`
	// Title is the display string as last observed; it may change across
	// observations of the same assignment.
	Title string `json:"title" yaml:"title" toml:"title" validate:"required,min=1,max=500"`
	// RawTitle is the original unprocessed text, kept for audit only.
	// It is never used for matching.
	RawTitle string `json:"raw_title,omitempty" yaml:"raw_title,omitempty" toml:"raw_title,omitempty"`
	// TitleNormalized is derived from Title on every save. It is not an
	// independent identity signal.
	TitleNormalized string `json:"title_normalized,omitempty" yaml:"title_normalized,omitempty" toml:"title_normalized,omitempty"`
	Course          string `json:"course,omitempty" yaml:"course,omitempty" toml:"course,omitempty"`
	CourseCode      string `json:"course_code,omitempty" yaml:"course_code,omitempty" toml:"course_code,omitempty"`
	// DueDate is an ISO calendar date (YYYY-MM-DD) or empty when the source
	// did not carry one.
	DueDate string           `json:"due_date,omitempty" yaml:"due_date,omitempty" toml:"due_date,omitempty"`
	Status  AssignmentStatus `json:"status" yaml:"status" toml:"status" validate:"required,oneof=Pending 'In Progress' Completed"`
	// Source is the origin tag, e.g. "email" or "moodle-scrape".
	Source string `json:"source,omitempty" yaml:"source,omitempty" toml:"source,omitempty"`
	// EmailID is the origin system's unique identifier when present. It is
	// the strongest identity signal for duplicate detection.
	EmailID     string    `json:"email_id,omitempty" yaml:"email_id,omitempty" toml:"email_id,omitempty"`
	AddedDate   time.Time `json:"added_date" yaml:"added_date" toml:"added_date"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated" toml:"last_updated"`
}

// ExternalID returns the origin-supplied identity signal, if any.
func (a Assignment) ExternalID() string {
	return a.EmailID
}

// AssignmentList is the persisted shape of the active collection.
type AssignmentList struct {
	Assignments []Assignment `json:"assignments" yaml:"assignments" toml:"assignments" validate:"dive"`
	TotalCount  int          `json:"totalCount" yaml:"totalCount" toml:"totalCount"`
}

const dueDateLayout = "2006-01-02"

// ParseDueDate validates a due date string from a candidate record.
// Empty input is allowed; a malformed date is a validation failure that the
// caller turns into a skipped candidate, never a crash.
func ParseDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "no due date") {
		return "", nil
	}
	layouts := []string{
		dueDateLayout,
		"02/01/2006",
		"01/02/2006",
		"2 January 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dueDateLayout), nil
		}
	}
	return "", fmt.Errorf("unparseable due date %q", s)
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}

// NewAssignment builds an assignment with system timestamps set.
func NewAssignment(title string) *Assignment {
	now := time.Now().UTC()
	return &Assignment{
		Title:       title,
		Status:      StatusPending,
		AddedDate:   now,
		LastUpdated: now,
	}
}
