// Package schedule is the raid scheduling engine: a weekly default pattern,
// punctual overrides (cancellations, exceptional raids, absences) and the
// upcoming-events queries built on top of them.
//
// The engine keeps no state between calls. Every operation reads the
// community's schedule, validates, and for mutations writes a new schedule
// value back as a whole. Mutations on one community are not serialized here.
package schedule

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/samber/mo"

	appLog "raidsched/internal/log"
	"raidsched/internal/model"
	"raidsched/internal/store"
	"raidsched/internal/timezone"
)

type Engine struct {
	store store.Store
	clock Clock
}

// NewEngine builds an engine on st. A nil clock means the system clock.
func NewEngine(st store.Store, clock Clock) *Engine {
	if clock == nil {
		clock = systemClock{}
	}
	return &Engine{store: st, clock: clock}
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

// load reads the current schedule. A read error is logged and reported as
// Failure.
func (e *Engine) load(ctx context.Context, communityID string) (model.Schedule, Outcome) {
	s, err := e.store.GetSchedule(ctx, communityID)
	if err != nil {
		appLog.Error("schedule read failed", err, "community", communityID)
		return model.Schedule{}, Failure
	}
	return s.Clone(), Success
}

func (e *Engine) save(ctx context.Context, communityID string, s model.Schedule, op string) Outcome {
	if err := e.store.UpdateSchedule(ctx, communityID, s); err != nil {
		appLog.Error("schedule write failed", err, "community", communityID, "op", op)
		return Failure
	}
	appLog.Debug("schedule updated", "community", communityID, "op", op)
	return Success
}

// parseSlotInput validates a (day, time, zone) triple and returns the UTC
// slot. Checks run in the order zone, time, day.
func parseSlotInput(day, clock, zoneID string) (model.Slot, Outcome) {
	loc, err := timezone.LoadZone(zoneID)
	if err != nil {
		return model.Slot{}, IncorrectTimezoneID
	}
	hour, minute, err := timezone.ParseTime(clock)
	if err != nil {
		return model.Slot{}, IncorrectTimeFormat
	}
	weekday, err := timezone.ParseWeekday(day)
	if err != nil {
		return model.Slot{}, IncorrectDayOfWeek
	}
	d, h, m := timezone.ToUTCSlot(weekday, hour, minute, loc)
	return model.Slot{DayOfWeek: d, HourUTC: h, MinuteUTC: m}, Success
}

// parseInstantInput validates a (date, time, zone) triple and returns the
// UTC instant. Checks run in the order zone, time, date.
func parseInstantInput(date, clock, zoneID string) (time.Time, Outcome) {
	loc, err := timezone.LoadZone(zoneID)
	if err != nil {
		return time.Time{}, IncorrectTimezoneID
	}
	hour, minute, err := timezone.ParseTime(clock)
	if err != nil {
		return time.Time{}, IncorrectTimeFormat
	}
	d, err := timezone.ParseDate(date)
	if err != nil {
		return time.Time{}, IncorrectDate
	}
	return timezone.LocalToUTC(d, hour, minute, loc), Success
}

// SetDefaultTimezone changes the fallback display zone of the community.
//
// Outcomes: Success, Failure, IncorrectTimezoneID.
func (e *Engine) SetDefaultTimezone(ctx context.Context, communityID, zoneID string) Outcome {
	zoneID = strings.TrimSpace(zoneID)
	if !timezone.IsValidZoneID(zoneID) {
		return IncorrectTimezoneID
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	s.DefaultRaidSchedule.DefaultTimezoneID = zoneID
	return e.save(ctx, communityID, s, "set_default_timezone")
}

// AddDefaultRaid adds a weekly slot given in local time in zoneID. On
// success the updated default schedule is returned.
//
// Outcomes: Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat,
// IncorrectDayOfWeek, RaidAlreadyExists.
func (e *Engine) AddDefaultRaid(ctx context.Context, communityID, day, clock, zoneID string, comment mo.Option[string]) (Outcome, model.DefaultRaidSchedule) {
	slot, out := parseSlotInput(day, clock, zoneID)
	if out != Success {
		return out, model.DefaultRaidSchedule{}
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out, model.DefaultRaidSchedule{}
	}
	if _, exists := s.DefaultRaidSchedule.Find(slot); exists {
		return RaidAlreadyExists, model.DefaultRaidSchedule{}
	}

	s.DefaultRaidSchedule.DefaultRaids = append(s.DefaultRaidSchedule.DefaultRaids, model.DefaultRaid{
		DayOfWeek: slot.DayOfWeek,
		HourUTC:   slot.HourUTC,
		MinuteUTC: slot.MinuteUTC,
		Comment:   comment,
	})
	if out := e.save(ctx, communityID, s, "add_default_raid"); out != Success {
		return out, model.DefaultRaidSchedule{}
	}
	return Success, s.DefaultRaidSchedule
}

// RemoveDefaultRaid removes a weekly slot. Past cancellations of that slot
// stay in the schedule.
//
// Outcomes: Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat,
// IncorrectDayOfWeek, RaidDoesNotExist.
func (e *Engine) RemoveDefaultRaid(ctx context.Context, communityID, day, clock, zoneID string) Outcome {
	slot, out := parseSlotInput(day, clock, zoneID)
	if out != Success {
		return out
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	i := slices.IndexFunc(s.DefaultRaidSchedule.DefaultRaids, func(r model.DefaultRaid) bool {
		return r.Slot() == slot
	})
	if i < 0 {
		return RaidDoesNotExist
	}
	s.DefaultRaidSchedule.DefaultRaids = slices.Delete(s.DefaultRaidSchedule.DefaultRaids, i, i+1)
	return e.save(ctx, communityID, s, "remove_default_raid")
}

// CancelDefaultRaid cancels the single occurrence starting at the given local
// date and time. The instant must not be in the past and must fall on a slot
// of the default pattern.
//
// Outcomes: Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat,
// IncorrectDate, DateIsInThePast, RaidAlreadyCancelled, NoRaidPlanned.
func (e *Engine) CancelDefaultRaid(ctx context.Context, communityID, date, clock, zoneID string, comment mo.Option[string]) Outcome {
	instant, out := parseInstantInput(date, clock, zoneID)
	if out != Success {
		return out
	}
	if instant.Before(e.now()) {
		return DateIsInThePast
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	if slices.ContainsFunc(s.CancelledDefaultRaids, func(c model.CancelledDefaultRaid) bool {
		return c.Timestamp.Equal(instant)
	}) {
		return RaidAlreadyCancelled
	}
	if !slices.ContainsFunc(s.DefaultRaidSchedule.DefaultRaids, func(r model.DefaultRaid) bool {
		return r.Matches(instant)
	}) {
		return NoRaidPlanned
	}

	s.CancelledDefaultRaids = append(s.CancelledDefaultRaids, model.CancelledDefaultRaid{
		Timestamp: instant,
		Comment:   comment,
	})
	return e.save(ctx, communityID, s, "cancel_default_raid")
}

// RevertDefaultRaidCancellation removes the cancellation at the given local
// date and time.
//
// Outcomes: Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat,
// IncorrectDate, NothingToRevert.
func (e *Engine) RevertDefaultRaidCancellation(ctx context.Context, communityID, date, clock, zoneID string) Outcome {
	instant, out := parseInstantInput(date, clock, zoneID)
	if out != Success {
		return out
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	i := slices.IndexFunc(s.CancelledDefaultRaids, func(c model.CancelledDefaultRaid) bool {
		return c.Timestamp.Equal(instant)
	})
	if i < 0 {
		return NothingToRevert
	}
	s.CancelledDefaultRaids = slices.Delete(s.CancelledDefaultRaids, i, i+1)
	return e.save(ctx, communityID, s, "revert_default_raid_cancellation")
}

// AddExceptionalRaid schedules a one-off raid.
//
// Outcomes: Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat,
// IncorrectDate, DateIsInThePast, RaidAlreadyExists.
func (e *Engine) AddExceptionalRaid(ctx context.Context, communityID, date, clock, zoneID string, comment mo.Option[string]) Outcome {
	instant, out := parseInstantInput(date, clock, zoneID)
	if out != Success {
		return out
	}
	if instant.Before(e.now()) {
		return DateIsInThePast
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	if slices.ContainsFunc(s.ExceptionalRaids, func(r model.ExceptionalRaid) bool {
		return r.Timestamp.Equal(instant)
	}) {
		return RaidAlreadyExists
	}

	s.ExceptionalRaids = append(s.ExceptionalRaids, model.ExceptionalRaid{Timestamp: instant, Comment: comment})
	return e.save(ctx, communityID, s, "add_exceptional_raid")
}

// CancelExceptionalRaid deletes the exceptional raid at the given local date
// and time.
//
// Outcomes: Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat,
// IncorrectDate, NothingToCancel.
func (e *Engine) CancelExceptionalRaid(ctx context.Context, communityID, date, clock, zoneID string) Outcome {
	instant, out := parseInstantInput(date, clock, zoneID)
	if out != Success {
		return out
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	i := slices.IndexFunc(s.ExceptionalRaids, func(r model.ExceptionalRaid) bool {
		return r.Timestamp.Equal(instant)
	})
	if i < 0 {
		return NothingToCancel
	}
	s.ExceptionalRaids = slices.Delete(s.ExceptionalRaids, i, i+1)
	return e.save(ctx, communityID, s, "cancel_exceptional_raid")
}

// parseAbsenceDate parses the date of an absence and rejects days whose UTC
// start is before now.
func (e *Engine) parseAbsenceDate(date string) (model.Date, Outcome) {
	d, err := timezone.ParseDate(date)
	if err != nil {
		return model.Date{}, IncorrectDate
	}
	if d.StartOfDay().Before(e.now()) {
		return model.Date{}, DateIsInThePast
	}
	return d, Success
}

// AddAbsence records that userID is absent on date.
//
// Outcomes: Success, Failure, IncorrectDate, DateIsInThePast,
// AbsenceAlreadyExists.
func (e *Engine) AddAbsence(ctx context.Context, communityID, date, userID string, comment mo.Option[string]) Outcome {
	d, out := e.parseAbsenceDate(date)
	if out != Success {
		return out
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	if slices.ContainsFunc(s.Absences, func(a model.Absence) bool {
		return a.Date == d && a.UserID == userID
	}) {
		return AbsenceAlreadyExists
	}

	s.Absences = append(s.Absences, model.Absence{Date: d, UserID: userID, Comment: comment})
	return e.save(ctx, communityID, s, "add_absence")
}

// RemoveAbsence deletes the absence of userID on date.
//
// Outcomes: Success, Failure, IncorrectDate, DateIsInThePast, NoSuchAbsence.
func (e *Engine) RemoveAbsence(ctx context.Context, communityID, date, userID string) Outcome {
	d, out := e.parseAbsenceDate(date)
	if out != Success {
		return out
	}
	s, out := e.load(ctx, communityID)
	if out != Success {
		return out
	}
	i := slices.IndexFunc(s.Absences, func(a model.Absence) bool {
		return a.Date == d && a.UserID == userID
	})
	if i < 0 {
		return NoSuchAbsence
	}
	s.Absences = slices.Delete(s.Absences, i, i+1)
	return e.save(ctx, communityID, s, "remove_absence")
}
