package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"

	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/types"
)

const (
	defaultDataFile   = "assignments.json"
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	markdownFileKey   = "markdownFile"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
	backupSuffix      = ".bak"
)

// FileAssignmentStore implements AssignmentStore on a single data file.
// It supports JSON, YAML, and TOML formats and uses file-level locking so
// two scheduled runs never interleave writes to the persisted state.
type FileAssignmentStore struct {
	filePath     string
	markdownPath string
	assignments  map[string]models.Assignment
	flk          *flock.Flock
	format       string
}

// NewFileAssignmentStore creates a new instance of FileAssignmentStore.
// Initialize must be called separately.
func NewFileAssignmentStore() *FileAssignmentStore {
	return &FileAssignmentStore{
		assignments: make(map[string]models.Assignment),
	}
}

// Initialize configures the store. It expects a 'dataFile' key in the
// config map; 'dataFileFormat' selects json, yaml or toml; an optional
// 'markdownFile' gets a human-readable table on every save. It loads
// existing assignments (recovering from backup if the file is corrupt)
// and establishes the file lock.
func (s *FileAssignmentStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}
	s.markdownPath = config[markdownFileKey]

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		formatLower := strings.ToLower(val)
		switch formatLower {
		case formatJSON, formatYAML, formatTOML:
			s.format = formatLower
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s. Supported formats are json, yaml, toml", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	dir := filepath.Dir(s.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	s.flk = flock.New(s.filePath)

	// A run that cannot take the lock exits without touching state rather
	// than queueing behind the holder.
	locked, err := s.flk.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", s.filePath, err)
	}
	if !locked {
		return fmt.Errorf("data file %s is locked by another run", s.filePath)
	}
	defer func() { _ = s.flk.Unlock() }()

	s.assignments = make(map[string]models.Assignment)
	return s.loadInternal()
}

// calculateChecksum computes the SHA256 checksum of the given data.
func calculateChecksum(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// loadInternal reads the collection from disk, verifies the checksum, and
// unmarshals. Corrupt state triggers backup recovery; if that also fails
// the store starts empty and logs exactly what was discarded. The run is
// never aborted by unreadable state.
func (s *FileAssignmentStore) loadInternal() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.assignments = make(map[string]models.Assignment)
			return nil
		}
		return fmt.Errorf("failed to read data file %s: %w", s.filePath, err)
	}

	if corrupt := s.verifyAndParse(data); corrupt != nil {
		logrus.WithError(corrupt).Warnf("Data file %s unreadable, attempting backup recovery", s.filePath)
		if recoverErr := s.recoverFromBackup(); recoverErr != nil {
			logrus.WithError(recoverErr).Errorf(
				"Backup recovery failed; starting with an empty collection. Discarded unreadable state at %s (%d bytes)",
				s.filePath, len(data))
			s.assignments = make(map[string]models.Assignment)
		}
	}
	return nil
}

// verifyAndParse checks the checksum (when one exists) and unmarshals the
// collection. It returns a CorruptStateError on any failure.
func (s *FileAssignmentStore) verifyAndParse(data []byte) error {
	checksumFilePath := s.filePath + checksumSuffix
	if expected, err := os.ReadFile(checksumFilePath); err == nil {
		expectedChecksum := strings.TrimSpace(string(expected))
		if actual := calculateChecksum(data); actual != expectedChecksum {
			return &types.CorruptStateError{Path: s.filePath, Err: fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actual)}
		}
	}
	return s.parseCollection(data)
}

// parseCollection unmarshals the collection without the checksum step. The
// checksum file always describes the main data file, so backup bytes are
// parsed directly.
func (s *FileAssignmentStore) parseCollection(data []byte) error {
	if len(data) == 0 {
		s.assignments = make(map[string]models.Assignment)
		return nil
	}

	var list models.AssignmentList
	var err error
	switch s.format {
	case formatJSON:
		err = json.Unmarshal(data, &list)
	case formatYAML:
		err = yaml.Unmarshal(data, &list)
	case formatTOML:
		err = toml.Unmarshal(data, &list)
	default:
		return fmt.Errorf("unsupported data format for loading: %s", s.format)
	}
	if err != nil {
		return &types.CorruptStateError{Path: s.filePath, Err: err}
	}

	s.assignments = make(map[string]models.Assignment, len(list.Assignments))
	for _, a := range list.Assignments {
		if a.ID == "" {
			a.ID = generateID()
		}
		s.assignments[a.ID] = a
	}
	return nil
}

// recoverFromBackup loads the most recent valid backup of the data file.
func (s *FileAssignmentStore) recoverFromBackup() error {
	backupPath := s.filePath + backupSuffix
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("no usable backup at %s: %w", backupPath, err)
	}
	if err := s.parseCollection(data); err != nil {
		return fmt.Errorf("backup %s also unreadable: %w", backupPath, err)
	}
	logrus.Warnf("Recovered %d assignments from backup %s", len(s.assignments), backupPath)
	return nil
}

// saveInternal writes the collection atomically: marshal to a temp file,
// keep the previous valid state as .bak, then rename into place so a
// concurrent reader never observes a torn file. The markdown companion is
// refreshed afterwards.
func (s *FileAssignmentStore) saveInternal() error {
	list := models.AssignmentList{
		Assignments: make([]models.Assignment, 0, len(s.assignments)),
		TotalCount:  len(s.assignments),
	}
	for _, a := range s.assignments {
		// title_normalized is always a pure function of title.
		a.TitleNormalized = dedup.NormalizeTitle(a.Title)
		list.Assignments = append(list.Assignments, a)
	}
	sort.Slice(list.Assignments, func(i, j int) bool {
		return list.Assignments[i].AddedDate.Before(list.Assignments[j].AddedDate)
	})

	var marshaledData []byte
	var err error
	switch s.format {
	case formatJSON:
		marshaledData, err = json.MarshalIndent(list, "", "  ")
	case formatYAML:
		marshaledData, err = yaml.Marshal(list)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encodeErr := toml.NewEncoder(buf).Encode(list); encodeErr == nil {
			marshaledData = buf.Bytes()
		} else {
			err = fmt.Errorf("failed to marshal TOML: %w", encodeErr)
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal assignments to %s: %w", s.format, err)
	}

	tempFilePath := s.filePath + ".tmp"
	checksumFilePath := s.filePath + checksumSuffix
	tempChecksumFilePath := checksumFilePath + ".tmp"

	defer func() { _ = os.Remove(tempFilePath) }()
	defer func() { _ = os.Remove(tempChecksumFilePath) }()

	if err := os.WriteFile(tempFilePath, marshaledData, 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary data file %s: %w", tempFilePath, err)
	}

	actualChecksum := calculateChecksum(marshaledData)
	if err := os.WriteFile(tempChecksumFilePath, []byte(actualChecksum), 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary checksum file %s: %w", tempChecksumFilePath, err)
	}

	// Keep the outgoing state as the fallback for the next recovery.
	if prev, readErr := os.ReadFile(s.filePath); readErr == nil {
		_ = os.WriteFile(s.filePath+backupSuffix, prev, 0o644)
	}

	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temporary data file %s to %s: %w", tempFilePath, s.filePath, err)
	}
	if err := os.Rename(tempChecksumFilePath, checksumFilePath); err != nil {
		return fmt.Errorf("data file %s updated, but failed to update checksum file %s: %w - store may be inconsistent", s.filePath, checksumFilePath, err)
	}

	if s.markdownPath != "" {
		if mdErr := s.writeMarkdown(list.Assignments); mdErr != nil {
			logrus.WithError(mdErr).Warnf("Failed to write markdown export %s", s.markdownPath)
		}
	}
	return nil
}

// writeMarkdown emits the human-readable companion table.
func (s *FileAssignmentStore) writeMarkdown(assignments []models.Assignment) error {
	var sb strings.Builder
	sb.WriteString("# Moodle Assignments\n\n")
	sb.WriteString("| Assignment | Due Date | Course | Status | Added Date |\n")
	sb.WriteString("|------------|----------|--------|--------|-----------|\n")
	for _, a := range assignments {
		title := strings.ReplaceAll(a.Title, "|", "\\|")
		course := strings.ReplaceAll(a.Course, "|", "\\|")
		due := a.DueDate
		if due == "" {
			due = "No due date"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			title, due, course, a.Status, a.AddedDate.Format("2006-01-02")))
	}
	return os.WriteFile(s.markdownPath, []byte(sb.String()), 0o644)
}

// generateID creates a new universally unique identifier string.
func generateID() string {
	return uuid.NewString()
}

// CreateAssignment adds a new assignment to the store, setting ID and
// system timestamps.
func (s *FileAssignmentStore) CreateAssignment(a models.Assignment) (models.Assignment, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Assignment{}, fmt.Errorf("could not lock file for create: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Assignment{}, fmt.Errorf("failed to reload assignments before create: %w", err)
	}

	if a.ID == "" {
		a.ID = generateID()
	} else if _, exists := s.assignments[a.ID]; exists {
		return models.Assignment{}, fmt.Errorf("assignment with ID '%s' already exists", a.ID)
	}

	now := time.Now().UTC()
	if a.AddedDate.IsZero() {
		a.AddedDate = now
	}
	if a.LastUpdated.IsZero() {
		a.LastUpdated = now
	}
	a.TitleNormalized = dedup.NormalizeTitle(a.Title)

	if err := models.ValidateStruct(a); err != nil {
		return models.Assignment{}, fmt.Errorf("validation failed for new assignment: %w", err)
	}

	s.assignments[a.ID] = a
	if err := s.saveInternal(); err != nil {
		_ = s.loadInternal()
		return models.Assignment{}, fmt.Errorf("failed to save new assignment: %w", err)
	}
	return a, nil
}

// GetAssignment retrieves an assignment by its unique identifier.
func (s *FileAssignmentStore) GetAssignment(id string) (models.Assignment, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Assignment{}, fmt.Errorf("failed to acquire lock for GetAssignment: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Assignment{}, fmt.Errorf("failed to load assignments for GetAssignment: %w", err)
	}

	a, ok := s.assignments[id]
	if !ok {
		return models.Assignment{}, &types.NotFoundError{Kind: "assignment", Key: id}
	}
	return a, nil
}

// UpdateAssignment replaces an existing record. added_date is preserved
// from the stored copy and last_updated never regresses.
func (s *FileAssignmentStore) UpdateAssignment(a models.Assignment) (models.Assignment, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Assignment{}, fmt.Errorf("could not lock file for update: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Assignment{}, fmt.Errorf("failed to reload assignments before update: %w", err)
	}

	existing, ok := s.assignments[a.ID]
	if !ok {
		return models.Assignment{}, &types.NotFoundError{Kind: "assignment", Key: a.ID}
	}

	a.AddedDate = existing.AddedDate
	if a.LastUpdated.Before(existing.LastUpdated) {
		a.LastUpdated = existing.LastUpdated
	}
	a.TitleNormalized = dedup.NormalizeTitle(a.Title)

	if err := models.ValidateStruct(a); err != nil {
		return models.Assignment{}, fmt.Errorf("validation failed for updated assignment: %w", err)
	}

	s.assignments[a.ID] = a
	if err := s.saveInternal(); err != nil {
		s.assignments[a.ID] = existing
		return models.Assignment{}, fmt.Errorf("failed to save updated assignment: %w", err)
	}
	return a, nil
}

// ReplaceAll atomically persists the supplied collection. This is the
// commit point for batch operations: the whole batch is staged in memory
// and becomes durable in one write.
func (s *FileAssignmentStore) ReplaceAll(assignments []models.Assignment) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("could not lock file for replace: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	next := make(map[string]models.Assignment, len(assignments))
	for _, a := range assignments {
		if a.ID == "" {
			a.ID = generateID()
		}
		if err := models.ValidateStruct(a); err != nil {
			return fmt.Errorf("validation failed for assignment %q: %w", a.Title, err)
		}
		next[a.ID] = a
	}

	prev := s.assignments
	s.assignments = next
	if err := s.saveInternal(); err != nil {
		s.assignments = prev
		return fmt.Errorf("failed to persist collection: %w", err)
	}
	return nil
}

// DeleteAssignment removes an assignment by its unique identifier.
func (s *FileAssignmentStore) DeleteAssignment(id string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("could not lock file for delete: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return fmt.Errorf("failed to reload assignments before delete: %w", err)
	}

	if _, ok := s.assignments[id]; !ok {
		return &types.NotFoundError{Kind: "assignment", Key: id}
	}
	delete(s.assignments, id)

	if err := s.saveInternal(); err != nil {
		_ = s.loadInternal()
		return fmt.Errorf("failed to save after deleting assignment: %w", err)
	}
	return nil
}

// ListAssignments retrieves assignments, optionally filtered and sorted.
func (s *FileAssignmentStore) ListAssignments(filterFn func(models.Assignment) bool, sortFn func([]models.Assignment)) ([]models.Assignment, error) {
	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for ListAssignments: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return nil, fmt.Errorf("failed to load assignments for ListAssignments: %w", err)
	}

	out := make([]models.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if filterFn == nil || filterFn(a) {
			out = append(out, a)
		}
	}
	if sortFn != nil {
		sortFn(out)
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].AddedDate.Before(out[j].AddedDate) })
	}
	return out, nil
}

// Backup copies the current persisted state to the destination path.
func (s *FileAssignmentStore) Backup(destinationPath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for backup: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	input, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read source file %s for backup: %w", s.filePath, err)
	}
	if err = os.WriteFile(destinationPath, input, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file to %s: %w", destinationPath, err)
	}
	return nil
}

// Close releases the file lock. flock.Unlock is idempotent.
func (s *FileAssignmentStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}
