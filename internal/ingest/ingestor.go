// Package ingest runs scraped assignment candidates through duplicate
// detection and stages the result as one atomic write to the active
// collection.
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/internal/dedup"
	"github.com/samjoshuadud/automation-notion/models"
	"github.com/samjoshuadud/automation-notion/store"
	"github.com/samjoshuadud/automation-notion/types"
)

// Outcome classifies what happened to one candidate.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeRestored  Outcome = "restored"
	OutcomeSkipped   Outcome = "skipped"
)

// ItemResult records the fate of a single candidate.
type ItemResult struct {
	Index      int             `json:"index"`
	Title      string          `json:"title"`
	Outcome    Outcome         `json:"outcome"`
	MatchKind  dedup.MatchKind `json:"-"`
	Confidence float64         `json:"confidence,omitempty"`
	Changes    []string        `json:"changes,omitempty"`
	Err        error           `json:"-"`
}

// Report is the full result of one ingest run.
type Report struct {
	Summary dedup.Summary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

// Ingestor wires the duplicate matcher to the two collections.
type Ingestor struct {
	Store   store.AssignmentStore
	Archive *archive.Manager
	Matcher *dedup.Matcher
	// DryRun reports what the batch would do without touching either
	// collection.
	DryRun bool
	// Now is the timestamp stamped on created and merged records; tests
	// substitute it.
	Now func() time.Time
}

// NewIngestor builds an ingestor with the default matcher.
func NewIngestor(s store.AssignmentStore, m *archive.Manager) *Ingestor {
	return &Ingestor{
		Store:   s,
		Archive: m,
		Matcher: dedup.NewMatcher(),
		Now:     time.Now,
	}
}

func (ing *Ingestor) now() time.Time {
	if ing.Now != nil {
		return ing.Now().UTC()
	}
	return time.Now().UTC()
}

// Ingest processes a batch of candidates. Each candidate is validated,
// matched against the active collection and the archive, then merged,
// created, or restored. Invalid candidates are skipped with the reason
// recorded; they never abort the batch. The active collection is persisted
// exactly once, after the whole batch is staged, so a crash mid-batch
// leaves the previous state intact.
func (ing *Ingestor) Ingest(candidates []models.Assignment) (Report, error) {
	now := ing.now()
	matcher := ing.Matcher
	if matcher == nil {
		matcher = dedup.NewMatcher()
	}

	active, err := ing.Store.ListAssignments(nil, nil)
	if err != nil {
		return Report{}, fmt.Errorf("load active assignments: %w", err)
	}
	archived, err := ing.Archive.Entries()
	if err != nil {
		return Report{}, fmt.Errorf("load archive: %w", err)
	}

	staged := make([]models.Assignment, len(active))
	copy(staged, active)
	// archivedRecords indexes the archive by position so a matched entry
	// can be popped out when its candidate revives it.
	archivedRecords := make([]models.Assignment, len(archived))
	for i, e := range archived {
		archivedRecords[i] = e.OriginalData
	}
	poppedEntries := make(map[int]bool)

	report := Report{Items: make([]ItemResult, 0, len(candidates))}
	changed := false

	for i, candidate := range candidates {
		item := ItemResult{Index: i, Title: candidate.Title}

		prepared, verr := prepareCandidate(candidate)
		if verr != nil {
			item.Outcome = OutcomeSkipped
			item.Err = verr
			report.Summary.Skipped++
			report.Items = append(report.Items, item)
			logrus.Warnf("Skipping invalid candidate %d (%q): %v", i, candidate.Title, verr)
			continue
		}

		// Active collection first: the staged slice already reflects
		// earlier candidates in this batch, so an exact re-send within a
		// batch merges instead of duplicating.
		match, matchErr := matcher.Match(prepared, staged)
		if matchErr != nil {
			var ambiguous *types.AmbiguousMatchError
			if errors.As(matchErr, &ambiguous) {
				report.Summary.Ambiguous++
				logrus.Warnf("Ambiguous fuzzy match for %q (%.3f vs %.3f); treating as new", prepared.Title, ambiguous.First, ambiguous.Second)
			} else {
				return Report{}, matchErr
			}
		}

		if match.Kind != dedup.MatchNone && match.Matched != nil {
			idx := indexByID(staged, match.Matched.ID)
			merged := dedup.Merge(staged[idx], prepared, now)
			item.MatchKind = match.Kind
			item.Confidence = match.Confidence
			if merged.Changed() {
				staged[idx] = merged.Updated
				changed = true
				item.Outcome = OutcomeUpdated
				item.Changes = changeFields(merged.Changes)
				report.Summary.Updated++
				logrus.Infof("Updated assignment %q (%s match, %.2f)", prepared.Title, match.Kind, match.Confidence)
			} else {
				item.Outcome = OutcomeUnchanged
				report.Summary.Unchanged++
			}
			report.Items = append(report.Items, item)
			continue
		}

		// Not active: a candidate matching an archived record means the
		// assignment is live again on Moodle.
		archMatch, archErr := matcher.Match(prepared, availableArchived(archivedRecords, poppedEntries))
		if archErr != nil {
			var ambiguous *types.AmbiguousMatchError
			if !errors.As(archErr, &ambiguous) {
				return Report{}, archErr
			}
			report.Summary.Ambiguous++
			archMatch = dedup.MatchResult{}
		}
		if archMatch.Kind != dedup.MatchNone && archMatch.Matched != nil {
			entryIdx := indexByID(archivedRecords, archMatch.Matched.ID)
			restored := archived[entryIdx].OriginalData
			if !ing.DryRun {
				entry, err := ing.Archive.PopEntry(archMatch.Matched.ID, "", "")
				if err != nil {
					return Report{}, fmt.Errorf("restore archived assignment: %w", err)
				}
				restored = entry.OriginalData
			}
			poppedEntries[entryIdx] = true

			restored.Status = models.StatusPending
			restored.LastUpdated = now
			merged := dedup.Merge(restored, prepared, now)
			staged = append(staged, merged.Updated)
			changed = true
			item.Outcome = OutcomeRestored
			item.MatchKind = archMatch.Kind
			item.Confidence = archMatch.Confidence
			report.Summary.Restored++
			report.Items = append(report.Items, item)
			logrus.Infof("Restored archived assignment %q", prepared.Title)
			continue
		}

		// Genuinely new. The ID is assigned here, not at persist time, so a
		// later candidate in the same batch that duplicates this one merges
		// into this record and no other.
		created := prepared
		if created.ID == "" {
			created.ID = uuid.NewString()
		}
		created.AddedDate = now
		created.LastUpdated = now
		staged = append(staged, created)
		changed = true
		item.Outcome = OutcomeCreated
		report.Summary.Created++
		report.Items = append(report.Items, item)
		logrus.Infof("New assignment: %s", prepared.Title)
	}

	if changed && !ing.DryRun {
		if err := ing.Store.ReplaceAll(staged); err != nil {
			return Report{}, fmt.Errorf("persist ingested assignments: %w", err)
		}
	}

	logrus.Infof("Ingest complete: %d created, %d updated, %d unchanged, %d restored, %d skipped",
		report.Summary.Created, report.Summary.Updated, report.Summary.Unchanged,
		report.Summary.Restored, report.Summary.Skipped)
	return report, nil
}

// prepareCandidate normalizes defaults and validates the fields ingest
// depends on. The returned error is a *types.ValidationError naming the
// offending field.
func prepareCandidate(c models.Assignment) (models.Assignment, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return models.Assignment{}, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if c.RawTitle == "" {
		c.RawTitle = c.Title
	}
	c.TitleNormalized = dedup.NormalizeTitle(c.Title)

	if c.Status == "" {
		c.Status = models.StatusPending
	} else if parsed, err := models.ParseStatus(string(c.Status)); err == nil {
		c.Status = parsed
	} else {
		return models.Assignment{}, &types.ValidationError{Field: "status", Reason: err.Error()}
	}

	if c.DueDate != "" {
		normalized, err := models.ParseDueDate(c.DueDate)
		if err != nil {
			return models.Assignment{}, &types.ValidationError{Field: "due_date", Reason: err.Error()}
		}
		c.DueDate = normalized
	}

	if c.Source == "" {
		c.Source = "moodle"
	}
	return c, nil
}

func indexByID(assignments []models.Assignment, id string) int {
	for i, a := range assignments {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// availableArchived filters out archive records already restored earlier in
// the batch.
func availableArchived(records []models.Assignment, popped map[int]bool) []models.Assignment {
	if len(popped) == 0 {
		return records
	}
	out := make([]models.Assignment, 0, len(records))
	for i, r := range records {
		if !popped[i] {
			out = append(out, r)
		}
	}
	return out
}

func changeFields(changes []dedup.FieldChange) []string {
	fields := make([]string, len(changes))
	for i, ch := range changes {
		fields[i] = ch.Field
	}
	return fields
}
