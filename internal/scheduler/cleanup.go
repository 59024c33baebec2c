// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// TokenPurger removes expired verification tokens.
type TokenPurger interface {
	PurgeExpiredVerificationTokens() (int64, error)
}

// CleanupScheduler purges expired verification tokens on a cron schedule.
// Expired session rows are handled by the session store's own cleanup
// goroutine and need no job here.
type CleanupScheduler struct {
	purger   TokenPurger
	schedule string

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewCleanupScheduler creates a scheduler. schedule is standard cron format;
// empty defaults to hourly.
func NewCleanupScheduler(purger TokenPurger, schedule string) *CleanupScheduler {
	if schedule == "" {
		schedule = "0 * * * *" // Hourly at :00
	}
	return &CleanupScheduler{
		purger:   purger,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *CleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Cleanup scheduler started with schedule %q", s.schedule)
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Printf("Cleanup scheduler stopped")
}

func (s *CleanupScheduler) run() {
	purged, err := s.purger.PurgeExpiredVerificationTokens()
	if err != nil {
		log.Printf("Failed to purge expired verification tokens: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Purged %d expired verification tokens", purged)
	}
}
