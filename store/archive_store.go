package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/types"
)

// ArchiveStore defines the interface for archive persistence. Transitions
// into and out of the archive are decided by the archive manager; this
// store only keeps the container durable.
type ArchiveStore interface {
	Initialize(config map[string]string) error
	Data() (models.ArchiveData, error)
	Append(entries ...models.ArchiveEntry) error
	Replace(entries []models.ArchiveEntry) error
	FileSize() int64
	Close() error
}

// FileArchiveStore persists the archive as a single JSON container with
// creation/cleanup metadata, matching the on-disk layout the sync layers
// already consume.
type FileArchiveStore struct {
	filePath string
	flk      *flock.Flock
}

func NewFileArchiveStore() *FileArchiveStore {
	return &FileArchiveStore{}
}

// Initialize sets up the archive file, creating an empty container when
// none exists yet.
func (s *FileArchiveStore) Initialize(config map[string]string) error {
	path, ok := config["archiveFile"]
	if !ok || path == "" {
		path = filepath.Join("data", "assignments_archive.json")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create archive dir %s: %w", dir, err)
		}
	}
	s.filePath = path
	s.flk = flock.New(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if writeErr := s.write(models.NewArchiveData()); writeErr != nil {
			return writeErr
		}
		logrus.Infof("Created new archive file: %s", path)
	}
	return nil
}

// Close releases the archive file lock.
func (s *FileArchiveStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}

func (s *FileArchiveStore) read() (models.ArchiveData, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewArchiveData(), nil
		}
		return models.ArchiveData{}, fmt.Errorf("read archive: %w", err)
	}
	if len(data) == 0 {
		return models.NewArchiveData(), nil
	}
	var archive models.ArchiveData
	if err := json.Unmarshal(data, &archive); err != nil {
		// An unreadable archive is reported but never fatal: the caller may
		// start from an empty container, losing only archive history.
		corrupt := &types.CorruptStateError{Path: s.filePath, Err: err}
		logrus.WithError(corrupt).Errorf("Archive file unreadable; treating as empty (%d bytes discarded)", len(data))
		return models.NewArchiveData(), nil
	}
	if archive.Assignments == nil {
		archive.Assignments = []models.ArchiveEntry{}
	}
	return archive, nil
}

func (s *FileArchiveStore) write(archive models.ArchiveData) error {
	b, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}
	tempPath := s.filePath + ".tmp"
	defer func() { _ = os.Remove(tempPath) }()
	if err := os.WriteFile(tempPath, b, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("replace archive %s: %w", s.filePath, err)
	}
	return nil
}

// Data returns the archive container including its metadata.
func (s *FileArchiveStore) Data() (models.ArchiveData, error) {
	if err := s.flk.Lock(); err != nil {
		return models.ArchiveData{}, fmt.Errorf("lock archive: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()
	return s.read()
}

// Append adds entries to the archive and refreshes the container metadata.
func (s *FileArchiveStore) Append(entries ...models.ArchiveEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock archive: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	archive, err := s.read()
	if err != nil {
		return err
	}
	archive.Assignments = append(archive.Assignments, entries...)
	archive.TotalArchived = len(archive.Assignments)
	now := time.Now().UTC()
	archive.LastCleanup = &now
	return s.write(archive)
}

// Replace swaps the entry list wholesale; restore uses it to drop the
// entry it moved back to the active collection.
func (s *FileArchiveStore) Replace(entries []models.ArchiveEntry) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("lock archive: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	archive, err := s.read()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []models.ArchiveEntry{}
	}
	archive.Assignments = entries
	archive.TotalArchived = len(entries)
	now := time.Now().UTC()
	archive.LastCleanup = &now
	return s.write(archive)
}

// FileSize reports the archive file size in bytes for the stats command.
func (s *FileArchiveStore) FileSize() int64 {
	if fi, err := os.Stat(s.filePath); err == nil {
		return fi.Size()
	}
	return 0
}
