// Package digest periodically announces the next raids of configured
// communities.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/mo"

	"raidsched/internal/config"
	appLog "raidsched/internal/log"
	"raidsched/internal/model"
	"raidsched/internal/schedule"
)

// Digest is what a Notifier receives for one community.
type Digest struct {
	CommunityID string
	GeneratedAt time.Time
	Schedule    model.UpcomingSchedule
}

// Notifier delivers a digest somewhere.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// Querier is the part of the engine used by the job.
type Querier interface {
	GetScheduleByNumberOfRaids(ctx context.Context, communityID string, n int, zoneID mo.Option[string]) schedule.ScheduleResult
}

// Job builds and sends one digest per community.
type Job struct {
	engine      Querier
	notifier    Notifier
	clock       schedule.Clock
	communities []string
	count       int
	zone        mo.Option[string]
}

func NewJob(engine Querier, notifier Notifier, clock schedule.Clock, cfg config.DigestConfig) *Job {
	if clock == nil {
		clock = schedule.ClockFunc(time.Now)
	}
	zone := mo.None[string]()
	if cfg.Timezone != "" {
		zone = mo.Some(cfg.Timezone)
	}
	return &Job{
		engine:      engine,
		notifier:    notifier,
		clock:       clock,
		communities: cfg.Communities,
		count:       cfg.Count,
		zone:        zone,
	}
}

// Run sends the digest of every community. Communities with nothing planned
// are skipped. Errors are collected so that one failing community does not
// block the others.
func (j *Job) Run(ctx context.Context) error {
	var errs []error
	sent := 0
	for _, id := range j.communities {
		res := j.engine.GetScheduleByNumberOfRaids(ctx, id, j.count, j.zone)
		switch {
		case res.Outcome == schedule.NothingToDisplay:
			appLog.Debug("digest skipped", "community", id, "reason", res.Outcome.String())
			continue
		case res.Outcome != schedule.Success || res.Upcoming == nil:
			err := fmt.Errorf("digest %s: %s", id, res.Outcome)
			appLog.Error("digest query failed", err, "community", id)
			errs = append(errs, err)
			continue
		}

		d := Digest{CommunityID: id, GeneratedAt: j.clock.Now().UTC(), Schedule: *res.Upcoming}
		if err := j.notifier.Notify(ctx, d); err != nil {
			appLog.Error("digest delivery failed", err, "community", id)
			errs = append(errs, fmt.Errorf("digest %s: %w", id, err))
			continue
		}
		sent++
	}
	appLog.Info("digest run completed", "communities", len(j.communities), "sent", sent, "errors", len(errs))
	return errors.Join(errs...)
}

// Schedule registers the job on a new cron with the given 5-field
// expression. Overlapping runs are skipped. The caller starts and stops the
// returned cron.
func Schedule(job *Job, spec string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() { runScheduled(job, timeout) })
	if err != nil {
		return nil, fmt.Errorf("digest: invalid cron %q: %w", spec, err)
	}
	return c, nil
}

// runScheduled is one cron tick. There is no caller to return the error to,
// so it is logged once on top of the per-community entries.
func runScheduled(job *Job, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := job.Run(ctx); err != nil {
		appLog.Error("scheduled digest run failed", err, "communities", len(job.communities))
	}
}
