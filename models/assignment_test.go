package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAssignment_ValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		assignment Assignment
		wantErr    bool
	}{
		{
			name: "valid assignment",
			assignment: Assignment{
				ID:          uuid.New().String(),
				Title:       "Module 3 Quiz",
				Status:      StatusPending,
				AddedDate:   time.Now(),
				LastUpdated: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "empty title",
			assignment: Assignment{
				ID:          uuid.New().String(),
				Title:       "",
				Status:      StatusPending,
				AddedDate:   time.Now(),
				LastUpdated: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "invalid status",
			assignment: Assignment{
				ID:          uuid.New().String(),
				Title:       "Module 3 Quiz",
				Status:      "Archived",
				AddedDate:   time.Now(),
				LastUpdated: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "in progress with space is valid",
			assignment: Assignment{
				ID:          uuid.New().String(),
				Title:       "Essay Draft",
				Status:      StatusInProgress,
				AddedDate:   time.Now(),
				LastUpdated: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "non-uuid id",
			assignment: Assignment{
				ID:          "not-a-uuid",
				Title:       "Module 3 Quiz",
				Status:      StatusPending,
				AddedDate:   time.Now(),
				LastUpdated: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "empty id allowed before create assigns one",
			assignment: Assignment{
				Title:       "Module 3 Quiz",
				Status:      StatusPending,
				AddedDate:   time.Now(),
				LastUpdated: time.Now(),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.assignment)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    AssignmentStatus
		wantErr bool
	}{
		{"Pending", StatusPending, false},
		{"pending", StatusPending, false},
		{"ToDo", StatusPending, false},
		{"not started", StatusPending, false},
		{"In Progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"IN_PROGRESS", StatusInProgress, false},
		{"doing", StatusInProgress, false},
		{"Completed", StatusCompleted, false},
		{"done", StatusCompleted, false},
		{"  Complete  ", StatusCompleted, false},
		{"cancelled", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2026-09-15", "2026-09-15", false},
		{"15/09/2026", "2026-09-15", false},
		{"September 15, 2026", "2026-09-15", false},
		{"Sep 15, 2026", "2026-09-15", false},
		{"15 September 2026", "2026-09-15", false},
		{"", "", false},
		{"No due date", "", false},
		{"someday", "", true},
	}

	for _, tt := range tests {
		name := tt.input
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			got, err := ParseDueDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDueDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDueDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAssignment_JSONRoundTrip(t *testing.T) {
	a := Assignment{
		ID:          uuid.New().String(),
		Title:       "Lab Report 2",
		Course:      "Physics",
		CourseCode:  "PHYS101",
		DueDate:     "2026-10-01",
		Status:      StatusInProgress,
		Source:      "email",
		EmailID:     "msg-42",
		AddedDate:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		LastUpdated: time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Assignment
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != a {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, a)
	}
}

func TestNewAssignment(t *testing.T) {
	a := NewAssignment("Week 1 Reading")
	if a.Title != "Week 1 Reading" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Status != StatusPending {
		t.Errorf("Status should default to Pending, got %q", a.Status)
	}
	if a.AddedDate.IsZero() || a.LastUpdated.IsZero() {
		t.Error("timestamps should be set")
	}
}
