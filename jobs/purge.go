// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"itinera/logx"

	"github.com/robfig/cron/v3"
)

// Purger removes itineraries soft-deleted before a cutoff.
type Purger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper drops idle in-memory state and reports how much it dropped.
type Sweeper interface {
	Sweep() int
}

type Scheduler struct {
	cron      *cron.Cron
	purger    Purger
	retention time.Duration
	sweepers  []Sweeper
	now       func() time.Time
}

// NewScheduler purges itineraries deleted more than retentionDays ago.
func NewScheduler(purger Purger, retentionDays int, sweepers ...Sweeper) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		sweepers:  sweepers,
		now:       time.Now,
	}
}

// Start registers the purge on purgeSpec (standard five-field cron) and a
// sweep every five minutes.
func (s *Scheduler) Start(purgeSpec string) error {
	if _, err := s.cron.AddFunc(purgeSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Purge(ctx)
	}); err != nil {
		return fmt.Errorf("purge schedule %q: %w", purgeSpec, err)
	}
	if len(s.sweepers) > 0 {
		s.cron.AddFunc("@every 5m", s.sweep)
	}
	s.cron.Start()
	logx.Info("scheduler started", "purge", purgeSpec, "retention", s.retention)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logx.Info("scheduler stopped")
}

// Purge runs one purge pass.
func (s *Scheduler) Purge(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	n, err := s.purger.PurgeDeleted(ctx, cutoff)
	if err != nil {
		logx.Error("purge deleted itineraries", err, "cutoff", cutoff.Format(time.RFC3339))
		return 0
	}
	if n > 0 {
		logx.Info("purged deleted itineraries", "count", n)
	}
	return n
}

func (s *Scheduler) sweep() {
	for _, sw := range s.sweepers {
		if n := sw.Sweep(); n > 0 {
			logx.Debug("swept idle entries", "count", n)
		}
	}
}
