// Package janitor removes translated outputs that were never downloaded.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Sweeper is implemented by every storage.Store.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

type Janitor struct {
	store     Sweeper
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	group     singleflight.Group
}

func New(store Sweeper, schedule string, retention time.Duration) *Janitor {
	return &Janitor{
		store:     store,
		retention: retention,
		schedule:  schedule,
		cron:      cron.New(),
	}
}

// Start registers the sweep on the schedule and starts the cron runner.
func (j *Janitor) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	return nil
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce sweeps now. Overlapping calls share one sweep.
func (j *Janitor) RunOnce(ctx context.Context) int {
	v, _, _ := j.group.Do("sweep", func() (any, error) {
		removed, err := j.store.Sweep(ctx, j.retention)
		if err != nil {
			logrus.WithError(err).Warn("output cleanup failed")
		}
		if removed > 0 {
			logrus.WithField("removed", removed).Info("removed expired outputs")
		}
		return removed, nil
	})
	return v.(int)
}
