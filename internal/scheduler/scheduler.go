// Package scheduler drives the periodic sync cycle: ingest new
// candidates, archive old completed work, reconcile remote statuses.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/internal/ingest"
	"github.com/samjoshuadud/automation-notion/internal/metrics"
	syncpkg "github.com/samjoshuadud/automation-notion/internal/sync"
)

// Config holds the scheduler settings.
type Config struct {
	// IntervalMinutes is how often the sync cycle runs.
	IntervalMinutes int
	// CandidatesFile is polled for scraped assignments each cycle; empty
	// disables the ingest step.
	CandidatesFile string
}

// Scheduler manages the periodic sync cycle.
type Scheduler struct {
	cron       *cron.Cron
	entryID    cron.EntryID
	config     Config
	ingestor   *ingest.Ingestor
	archiver   *archive.Manager
	reconciler *syncpkg.Reconciler
	sources    []syncpkg.StatusSource
	metrics    *metrics.Metrics
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	isRunning  bool
	mu         sync.RWMutex
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg Config, ingestor *ingest.Ingestor, archiver *archive.Manager, reconciler *syncpkg.Reconciler, sources []syncpkg.StatusSource, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		config:     cfg,
		ingestor:   ingestor,
		archiver:   archiver,
		reconciler: reconciler,
		sources:    sources,
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	interval := s.config.IntervalMinutes
	if interval <= 0 {
		interval = 30
	}
	schedule := fmt.Sprintf("0 */%d * * * *", interval)

	entryID, err := s.cron.AddFunc(schedule, s.runCycle)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", interval)
	return nil
}

// Stop stops the scheduler and waits for the running cycle to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce runs the sync cycle once, without requiring Start.
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running sync cycle once")
	s.cycle()
	return nil
}

// GetNextRun returns the time of the next scheduled run.
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the time of the last run.
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

// Wait waits for in-flight cycles to finish.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// runCycle is the periodic body: ingest, cleanup, reconcile. A failing
// step is logged and the remaining steps still run.
func (s *Scheduler) runCycle() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping sync cycle")
		return
	}
	s.mu.RUnlock()

	s.cycle()
}

func (s *Scheduler) cycle() {
	logrus.Info("Starting sync cycle")
	startTime := time.Now()

	s.stepIngest()
	s.stepCleanup()
	s.stepReconcile()
	s.updateGauges()

	logrus.Infof("Sync cycle completed in %v", time.Since(startTime))
}

func (s *Scheduler) stepIngest() {
	if s.config.CandidatesFile == "" || s.ingestor == nil {
		return
	}
	if _, err := os.Stat(s.config.CandidatesFile); os.IsNotExist(err) {
		logrus.Debugf("No candidates file at %s, skipping ingest", s.config.CandidatesFile)
		return
	}

	candidates, err := ingest.LoadCandidates(s.config.CandidatesFile)
	if err != nil {
		logrus.Errorf("Failed to load candidates: %v", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	start := time.Now()
	report, err := s.ingestor.Ingest(candidates)
	if err != nil {
		logrus.Errorf("Ingest failed: %v", err)
		return
	}
	if s.metrics != nil {
		s.metrics.IngestRuns.Inc()
		s.metrics.IngestDuration.Observe(time.Since(start).Seconds())
		s.metrics.AssignmentsNew.Add(float64(report.Summary.Created))
		s.metrics.AssignmentsMerged.Add(float64(report.Summary.Updated))
		s.metrics.CandidatesSkipped.Add(float64(report.Summary.Skipped))
		s.metrics.AmbiguousMatches.Add(float64(report.Summary.Ambiguous))
		s.metrics.RestoredTotal.Add(float64(report.Summary.Restored))
	}
	logrus.Infof("Ingested %d candidates: %d new, %d updated", report.Summary.Total(), report.Summary.Created, report.Summary.Updated)
}

func (s *Scheduler) stepCleanup() {
	if s.archiver == nil {
		return
	}
	result, err := s.archiver.CleanupCompleted()
	if err != nil {
		logrus.Errorf("Archive cleanup failed: %v", err)
		return
	}
	if s.metrics != nil {
		s.metrics.ArchivedTotal.Add(float64(result.NewlyArchivedCount))
	}
	if result.NewlyArchivedCount > 0 {
		logrus.Infof("Archived %d completed assignments", result.NewlyArchivedCount)
	}
}

func (s *Scheduler) stepReconcile() {
	if s.reconciler == nil {
		return
	}
	for _, source := range s.sources {
		result, err := s.reconciler.ReconcileSource(s.ctx, source)
		if err != nil {
			logrus.Errorf("Status sync from %s failed: %v", source.Name(), err)
			continue
		}
		if s.metrics != nil {
			s.metrics.ReconcileUpdates.Add(float64(result.Updated))
			s.metrics.RestoredTotal.Add(float64(result.Restored))
		}
		if result.Updated > 0 || result.Restored > 0 {
			logrus.Infof("%s sync: updated %d, restored %d assignments", source.Name(), result.Updated, result.Restored)
		}
	}
}

func (s *Scheduler) updateGauges() {
	if s.metrics == nil || s.archiver == nil {
		return
	}
	stats, err := s.archiver.Stats()
	if err != nil {
		return
	}
	s.metrics.ActiveAssignments.Set(float64(stats.ActiveTotal))
	s.metrics.ArchiveSize.Set(float64(stats.ArchivedTotal))
}
