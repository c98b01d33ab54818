package schedule

import (
	"context"
	"strings"
	"time"

	"github.com/samber/mo"

	appLog "raidsched/internal/log"
	"raidsched/internal/model"
	"raidsched/internal/timezone"
)

// GetDefaultSchedule returns the weekly pattern and the default zone.
//
// Outcomes: Success, Failure, NothingToDisplay.
func (e *Engine) GetDefaultSchedule(ctx context.Context, communityID string) ScheduleResult {
	s, out := e.load(ctx, communityID)
	if out != Success {
		return ScheduleResult{Outcome: out}
	}
	if len(s.DefaultRaidSchedule.DefaultRaids) == 0 {
		return ScheduleResult{Outcome: NothingToDisplay}
	}
	def := s.DefaultRaidSchedule
	return ScheduleResult{Outcome: Success, Default: &def}
}

// effectiveZone returns the requested zone when it is valid and the
// schedule's default zone otherwise.
func effectiveZone(s model.Schedule, zoneID mo.Option[string]) string {
	if id, ok := zoneID.Get(); ok && timezone.IsValidZoneID(id) {
		return strings.TrimSpace(id)
	}
	return s.DefaultRaidSchedule.DefaultTimezoneID
}

// GetScheduleByDate lists every event from now until the end of date (UTC),
// that day included.
//
// Outcomes: Success, Failure, IncorrectDate, DateIsInThePast,
// NothingToDisplay.
func (e *Engine) GetScheduleByDate(ctx context.Context, communityID, date string, zoneID mo.Option[string]) ScheduleResult {
	d, err := timezone.ParseDate(date)
	if err != nil {
		return ScheduleResult{Outcome: IncorrectDate}
	}
	now := e.now()
	horizon := d.StartOfDay().Add(day)
	if horizon.Before(now) {
		return ScheduleResult{Outcome: DateIsInThePast}
	}

	s, out := e.load(ctx, communityID)
	if out != Success {
		return ScheduleResult{Outcome: out}
	}
	zone := effectiveZone(s, zoneID)

	events, err := mergeUntil(s, now, horizon)
	if err != nil {
		appLog.Error("schedule expansion failed", err, "community", communityID)
		return ScheduleResult{Outcome: Failure}
	}
	if len(events) == 0 {
		return ScheduleResult{Outcome: NothingToDisplay}
	}
	return ScheduleResult{
		Outcome:  Success,
		Upcoming: &model.UpcomingSchedule{TimezoneID: zone, UpcomingEvents: events},
	}
}

// countHorizon estimates how far to expand so that n raids are generated.
// With k weekly raids it covers ceil(n/k)+1 weeks from now; without any it
// stops at the latest exceptional raid.
func countHorizon(s model.Schedule, n int, now time.Time) time.Time {
	k := len(s.DefaultRaidSchedule.DefaultRaids)
	if k == 0 {
		var latest time.Time
		for _, r := range s.ExceptionalRaids {
			if r.Timestamp.After(latest) {
				latest = r.Timestamp
			}
		}
		return latest.UTC()
	}
	weeks := (n+k-1)/k + 1
	return now.AddDate(0, 0, 7*weeks)
}

// GetScheduleByNumberOfRaids lists the next n raids, default and exceptional
// alike, then adds the absences that fall inside the window those raids
// cover. Absences never take one of the n slots.
//
// Outcomes: Success, Failure, IncorrectNumberOfRaids, NothingToDisplay.
func (e *Engine) GetScheduleByNumberOfRaids(ctx context.Context, communityID string, n int, zoneID mo.Option[string]) ScheduleResult {
	if n < 1 {
		return ScheduleResult{Outcome: IncorrectNumberOfRaids}
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return ScheduleResult{Outcome: out}
	}
	if len(s.DefaultRaidSchedule.DefaultRaids) == 0 && len(s.ExceptionalRaids) == 0 {
		return ScheduleResult{Outcome: NothingToDisplay}
	}
	zone := effectiveZone(s, zoneID)
	now := e.now()
	horizon := countHorizon(s, n, now)

	occurrences, err := expandDefaultRaids(s.DefaultRaidSchedule.DefaultRaids, now, horizon)
	if err != nil {
		appLog.Error("schedule expansion failed", err, "community", communityID)
		return ScheduleResult{Outcome: Failure}
	}
	occurrences = applyCancellations(occurrences, s.CancelledDefaultRaids)

	raids := dropBefore(raidEvents(occurrences, s.ExceptionalRaids), now)
	sortEvents(raids)
	bound := horizon
	if len(raids) >= n {
		raids = raids[:n]
		bound = raids[n-1].ReferenceInstant()
	}

	absences := dropAfter(absenceEvents(s.Absences), bound)
	events := dropBefore(append(raids, absences...), now)
	sortEvents(events)

	if len(events) == 0 {
		return ScheduleResult{Outcome: NothingToDisplay}
	}
	return ScheduleResult{
		Outcome:  Success,
		Upcoming: &model.UpcomingSchedule{TimezoneID: zone, UpcomingEvents: events},
	}
}
