package services

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// StartScheduler starts the background task scheduler. Each run freezes terms
// that ended within freezeWindow. The returned cron must be stopped on shutdown.
func StartScheduler(repo SnapshotRepository, schedule string, freezeWindow time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(schedule, func() {
		log.Printf("[SCHEDULER] Triggering scheduled tasks [%s]...", schedule)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := FreezeEndedTermSnapshots(ctx, repo, time.Now(), freezeWindow); err != nil {
			log.Printf("[SCHEDULER] Error freezing term snapshots: %v", err)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %q", schedule)
	}

	c.Start()
	log.Printf("[SCHEDULER] Scheduler started schedule=%q", schedule)
	return c, nil
}
