// Package scheduler runs the periodic capture-and-sync job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one full pipeline run, expansion batches included.
const jobTimeout = 30 * time.Minute

// Job represents a scheduled task.
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
	log  *slog.Logger
}

// New creates a new scheduler.
func New(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron: cron.New(),
		jobs: make(map[string]cron.EntryID),
		log:  log,
	}
}

// AddJob adds a job with a cron schedule, e.g. "0 */6 * * *".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		s.log.Info("scheduler: starting job", "job", name)
		start := time.Now()

		if err := job(ctx); err != nil {
			s.log.Error("scheduler: job failed", "job", name, "error", err)
		} else {
			s.log.Info("scheduler: job completed", "job", name, "elapsed", time.Since(start))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.Info("scheduler: added job", "job", name, "schedule", schedule)
	return nil
}

// AddSyncJob schedules the capture-and-sync pipeline every intervalHours.
func (s *Scheduler) AddSyncJob(intervalHours int, job Job) error {
	if intervalHours < 1 {
		intervalHours = 1
	}
	schedule := fmt.Sprintf("0 */%d * * *", intervalHours)
	return s.AddJob("sync", schedule, job)
}

// RemoveJob removes a scheduled job.
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that completes when any
// running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// JobInfo describes one scheduled job.
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// ListJobs returns info about scheduled jobs.
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}
