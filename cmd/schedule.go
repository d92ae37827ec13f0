package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/ingest"
	"github.com/samjoshuadud/automation-notion/internal/logger"
	"github.com/samjoshuadud/automation-notion/internal/metrics"
	"github.com/samjoshuadud/automation-notion/internal/scheduler"
	"github.com/samjoshuadud/automation-notion/internal/server"
)

var (
	scheduleOnce     bool
	scheduleInterval int
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the sync cycle on a timer with health endpoints",
	Long: `Schedule runs the full sync cycle periodically: ingest candidates from
the configured file, archive old completed assignments, and reconcile
statuses from the configured platforms.

While running, /health, /status and /metrics are served on the configured
listen address.

Examples:
  moodlesync schedule            # Run until interrupted
  moodlesync schedule --once     # Run one cycle and exit`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "run a single sync cycle and exit")
	scheduleCmd.Flags().IntVar(&scheduleInterval, "interval", 0, "minutes between cycles (overrides config)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	logger.SetCommand("schedule")
	cfg := GetConfig()

	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	ingestor := ingest.NewIngestor(s, manager)
	ingestor.Matcher = newMatcherFromConfig()
	reconciler := newReconciler(s, manager)

	sources, err := configuredSources("")
	if err != nil {
		return err
	}

	interval := cfg.Scheduler.IntervalMinutes
	if scheduleInterval > 0 {
		interval = scheduleInterval
	}

	m := metrics.NewMetrics()
	sched := scheduler.NewScheduler(scheduler.Config{
		IntervalMinutes: interval,
		CandidatesFile:  cfg.Scheduler.CandidatesFile,
	}, ingestor, manager, reconciler, sources, m)

	if scheduleOnce {
		return sched.RunOnce()
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := server.New(cfg.Scheduler.ListenAddr, manager, sched)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logrus.Infof("Received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			PrintError("HTTP server failed.", err)
		}
	}

	if err := sched.Stop(); err != nil {
		LogError("stopping scheduler", err)
	}
	sched.Wait()
	if err := srv.Shutdown(); err != nil {
		LogError("shutting down HTTP server", err)
	}
	return nil
}
