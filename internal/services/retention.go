package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// JobPurger deletes finished search jobs that completed before cutoff.
type JobPurger interface {
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts six-field (with seconds) expressions and
// descriptors such as "@daily".
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}

type RetentionScheduler struct {
	purger    JobPurger
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

func NewRetentionScheduler(purger JobPurger, retentionDays int) *RetentionScheduler {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &RetentionScheduler{
		purger:    purger,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(cron.WithParser(scheduleParser)),
		now:       time.Now,
	}
}

func (s *RetentionScheduler) Start(expr string) error {
	if _, err := ParseSchedule(expr); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(expr, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()

	log.Printf("Retention scheduler started (%s, keep %s)", expr, s.retention)
	return nil
}

func (s *RetentionScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce purges jobs finished before now minus the retention window.
func (s *RetentionScheduler) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.purger.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("retention: failed to purge search jobs: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("retention: purged %d search jobs finished before %s", n, cutoff.Format(time.RFC3339))
	}
	return n
}
