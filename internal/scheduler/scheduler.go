package scheduler

import (
	"fmt"
	"log"
	"time"

	"DivTracker/internal/cache"

	"github.com/robfig/cron/v3"
)

// Scheduler manages periodic cache maintenance.
type Scheduler struct {
	Cron      *cron.Cron
	Cache     *cache.Service
	Retention time.Duration
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cacheSvc *cache.Service, retention time.Duration) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Cache:     cacheSvc,
		Retention: retention,
	}
}

// RegisterAll registers the retention sweep task.
func (s *Scheduler) RegisterAll(cleanupCron string) error {
	if _, err := s.Cron.AddFunc(cleanupCron, s.cleanupTask); err != nil {
		return fmt.Errorf("register cleanup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunCleanupNow executes the retention sweep immediately (manual trigger).
func (s *Scheduler) RunCleanupNow() (cache.CleanupResult, error) {
	return s.Cache.CleanupOlderThan(s.Retention)
}

func (s *Scheduler) cleanupTask() {
	log.Println("[INFO] running cache retention sweep")
	res, err := s.Cache.CleanupOlderThan(s.Retention)
	if err != nil {
		log.Printf("[ERROR] retention sweep: %v", err)
		return
	}
	log.Printf("[INFO] retention sweep done: %d quotes, %d dividends removed", res.DeletedQuotes, res.DeletedDividends)
}
