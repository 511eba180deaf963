// Package scheduler runs the periodic maintenance jobs of the prescriptions API:
// sweeping idle rate-limit buckets and pruning expired log files.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	sweepInterval = 30 * time.Minute
	logPruneAt    = "03:00"
)

// BucketSweeper drops rate-limit state for idle clients
type BucketSweeper interface {
	Sweep() int
}

// LogPruner deletes log files past their retention period
type LogPruner func() (int, error)

// Scheduler owns the gocron scheduler and its maintenance jobs
type Scheduler struct {
	sweeper   BucketSweeper
	pruneLogs LogPruner
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(sweeper BucketSweeper, pruneLogs LogPruner) *Scheduler {
	return &Scheduler{
		sweeper:   sweeper,
		pruneLogs: pruneLogs,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start registers the jobs and runs the scheduler in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(sweepInterval).Tag("bucket-sweep").Do(s.sweepBuckets); err != nil {
		logging.Error("Failed to schedule bucket sweep", "error", err)
		return fmt.Errorf("failed to schedule bucket sweep: %w", err)
	}

	if _, err := s.scheduler.Every(1).Day().At(logPruneAt).Tag("log-prune").Do(s.pruneOldLogs); err != nil {
		logging.Error("Failed to schedule log pruning", "error", err)
		return fmt.Errorf("failed to schedule log pruning: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Maintenance scheduler started", "jobs", s.scheduler.Len())
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweepBuckets() {
	if s.sweeper == nil {
		return
	}
	removed := s.sweeper.Sweep()
	logging.Debug("Rate limit buckets swept", "removed", removed)
}

func (s *Scheduler) pruneOldLogs() {
	if s.pruneLogs == nil {
		return
	}
	deleted, err := s.pruneLogs()
	if err != nil {
		logging.Warn("Failed to prune old logs", "error", err)
		return
	}
	if deleted > 0 {
		logging.Info("Old log files removed", "count", deleted)
	}
}
