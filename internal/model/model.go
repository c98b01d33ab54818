package model

import (
	"slices"
	"time"

	"github.com/samber/mo"
)

// DefaultRaid is one weekly recurring slot. Day, hour and minute are always
// expressed in UTC so that the slot does not drift with any viewer's DST.
type DefaultRaid struct {
	DayOfWeek time.Weekday      `json:"dayOfWeek"`
	HourUTC   int               `json:"hoursUTC"`
	MinuteUTC int               `json:"minutesUTC"`
	Comment   mo.Option[string] `json:"comment"`
}

// Slot identifies a default raid within a schedule.
type Slot struct {
	DayOfWeek time.Weekday
	HourUTC   int
	MinuteUTC int
}

func (r DefaultRaid) Slot() Slot {
	return Slot{DayOfWeek: r.DayOfWeek, HourUTC: r.HourUTC, MinuteUTC: r.MinuteUTC}
}

// Matches reports whether the UTC instant t falls on this raid's slot.
func (r DefaultRaid) Matches(t time.Time) bool {
	u := t.UTC()
	return u.Weekday() == r.DayOfWeek && u.Hour() == r.HourUTC && u.Minute() == r.MinuteUTC
}

// DefaultRaidSchedule is the weekly pattern of a community together with the
// zone used for display when a query does not name one.
type DefaultRaidSchedule struct {
	DefaultRaids      []DefaultRaid `json:"defaultRaids"`
	DefaultTimezoneID string        `json:"defaultTimezoneId"`
}

// Find returns the default raid occupying slot, if any.
func (s DefaultRaidSchedule) Find(slot Slot) (DefaultRaid, bool) {
	i := slices.IndexFunc(s.DefaultRaids, func(r DefaultRaid) bool { return r.Slot() == slot })
	if i < 0 {
		return DefaultRaid{}, false
	}
	return s.DefaultRaids[i], true
}

// CancelledDefaultRaid cancels the single occurrence of a default raid that
// starts at Timestamp. Other occurrences of the same slot are unaffected.
type CancelledDefaultRaid struct {
	Timestamp time.Time         `json:"timestamp"`
	Comment   mo.Option[string] `json:"comment"`
}

// ExceptionalRaid is a one-off raid outside the weekly pattern.
type ExceptionalRaid struct {
	Timestamp time.Time         `json:"timestamp"`
	Comment   mo.Option[string] `json:"comment"`
}

// Absence records that UserID is unavailable on Date (a UTC calendar day).
type Absence struct {
	Date    Date              `json:"date"`
	UserID  string            `json:"userId"`
	Comment mo.Option[string] `json:"comment"`
}

// Schedule is the whole persisted aggregate of one community. It is read and
// written back as a unit.
type Schedule struct {
	DefaultRaidSchedule   DefaultRaidSchedule    `json:"defaultRaidSchedule"`
	CancelledDefaultRaids []CancelledDefaultRaid `json:"cancelledDefaultRaids"`
	ExceptionalRaids      []ExceptionalRaid      `json:"exceptionalRaids"`
	Absences              []Absence              `json:"absences"`
}

// NewSchedule returns the empty schedule a community starts with.
func NewSchedule(defaultTimezoneID string) Schedule {
	return Schedule{
		DefaultRaidSchedule: DefaultRaidSchedule{
			DefaultRaids:      []DefaultRaid{},
			DefaultTimezoneID: defaultTimezoneID,
		},
		CancelledDefaultRaids: []CancelledDefaultRaid{},
		ExceptionalRaids:      []ExceptionalRaid{},
		Absences:              []Absence{},
	}
}

// Clone returns a deep copy; mutating the copy's slices never affects s.
func (s Schedule) Clone() Schedule {
	return Schedule{
		DefaultRaidSchedule: DefaultRaidSchedule{
			DefaultRaids:      cloneNonNil(s.DefaultRaidSchedule.DefaultRaids),
			DefaultTimezoneID: s.DefaultRaidSchedule.DefaultTimezoneID,
		},
		CancelledDefaultRaids: cloneNonNil(s.CancelledDefaultRaids),
		ExceptionalRaids:      cloneNonNil(s.ExceptionalRaids),
		Absences:              cloneNonNil(s.Absences),
	}
}

// cloneNonNil copies in and turns a nil slice into an empty one, so that
// documents decoded from older data always carry arrays.
func cloneNonNil[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
