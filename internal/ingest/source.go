package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/samjoshuadud/automation-notion/models"
)

// candidateFile is the on-disk shape of a scraped batch. A bare top-level
// array is also accepted.
type candidateFile struct {
	Assignments []models.Assignment `json:"assignments" yaml:"assignments" toml:"assignments"`
}

// LoadCandidates reads scraped assignment candidates from a json, yaml or
// toml file. The format follows the file extension.
func LoadCandidates(path string) ([]models.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		var bare []models.Assignment
		if err := json.Unmarshal(data, &bare); err == nil {
			return bare, nil
		}
		var wrapped candidateFile
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse candidates file %s: %w", path, err)
		}
		return wrapped.Assignments, nil
	case ".yaml", ".yml":
		var bare []models.Assignment
		if err := yaml.Unmarshal(data, &bare); err == nil && len(bare) > 0 {
			return bare, nil
		}
		var wrapped candidateFile
		if err := yaml.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse candidates file %s: %w", path, err)
		}
		return wrapped.Assignments, nil
	case ".toml":
		var wrapped candidateFile
		if err := toml.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse candidates file %s: %w", path, err)
		}
		return wrapped.Assignments, nil
	default:
		return nil, fmt.Errorf("unsupported candidates file extension %q (want .json, .yaml or .toml)", ext)
	}
}
