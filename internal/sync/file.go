package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samjoshuadud/automation-notion/models"
)

// FileSource reads statuses from a local file instead of a platform API.
// It exists for offline reconciliation: an export dumped from elsewhere can
// be applied without credentials.
type FileSource struct {
	Path string
}

// NewFileSource builds a source backed by a json or yaml status file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Name() string { return "file" }

// statusFile is the on-disk shape. A bare top-level array is also accepted.
type statusFile struct {
	Statuses []rawStatus `json:"statuses" yaml:"statuses"`
}

type rawStatus struct {
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Title      string `json:"title" yaml:"title"`
	CourseCode string `json:"course_code,omitempty" yaml:"course_code,omitempty"`
	Status     string `json:"status" yaml:"status"`
}

// FetchStatuses loads and validates the status file. Entries with an
// unknown status string fail the whole fetch; a silently skipped entry
// would look like the platform never mentioned that assignment.
func (f *FileSource) FetchStatuses(ctx context.Context) ([]RemoteStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read status file %s: %w", f.Path, err)
	}

	raw, err := parseStatusFile(f.Path, data)
	if err != nil {
		return nil, err
	}

	statuses := make([]RemoteStatus, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Title) == "" && r.Identifier == "" {
			return nil, fmt.Errorf("status entry %d in %s has neither title nor identifier", i, f.Path)
		}
		parsed, err := models.ParseStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("status entry %d (%q) in %s: %w", i, r.Title, f.Path, err)
		}
		statuses = append(statuses, RemoteStatus{
			Identifier: r.Identifier,
			Title:      r.Title,
			CourseCode: r.CourseCode,
			Status:     parsed,
		})
	}
	return statuses, nil
}

func parseStatusFile(path string, data []byte) ([]rawStatus, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		var bare []rawStatus
		if err := json.Unmarshal(data, &bare); err == nil {
			return bare, nil
		}
		var wrapped statusFile
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse status file %s: %w", path, err)
		}
		return wrapped.Statuses, nil
	case ".yaml", ".yml":
		var bare []rawStatus
		if err := yaml.Unmarshal(data, &bare); err == nil && len(bare) > 0 {
			return bare, nil
		}
		var wrapped statusFile
		if err := yaml.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse status file %s: %w", path, err)
		}
		return wrapped.Statuses, nil
	default:
		return nil, fmt.Errorf("unsupported status file extension %q (want .json or .yaml)", ext)
	}
}
