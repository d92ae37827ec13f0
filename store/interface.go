package store

import "github.com/samjoshuadud/automation-notion/models"

// AssignmentStore defines the interface for persistence of the active
// assignment collection. It owns that collection exclusively: every mutation
// of active assignments in the system goes through one of these methods.
type AssignmentStore interface {
	// Initialize configures the store with necessary parameters, such as
	// file path and data format. It must be called before any other store
	// operation, and it loads (or recovers) the persisted collection.
	Initialize(config map[string]string) error

	// CreateAssignment adds a new assignment. The store assigns the ID and
	// system timestamps and returns the stored record.
	CreateAssignment(a models.Assignment) (models.Assignment, error)

	// GetAssignment retrieves an assignment by its unique identifier.
	GetAssignment(id string) (models.Assignment, error)

	// UpdateAssignment replaces an existing assignment. The record must
	// already exist; added_date is preserved from the stored copy.
	UpdateAssignment(a models.Assignment) (models.Assignment, error)

	// ReplaceAll atomically persists the supplied collection as the new
	// active collection. Batch operations (ingest, archive cleanup) stage
	// their changes in memory and commit through this single write.
	ReplaceAll(assignments []models.Assignment) error

	// DeleteAssignment removes an assignment by its unique identifier.
	DeleteAssignment(id string) error

	// ListAssignments retrieves assignments, optionally filtered and sorted.
	ListAssignments(filterFn func(models.Assignment) bool, sortFn func([]models.Assignment)) ([]models.Assignment, error)

	// Backup copies the current persisted state to the destination path.
	Backup(destinationPath string) error

	// Close releases resources held by the store, such as file locks.
	Close() error
}
