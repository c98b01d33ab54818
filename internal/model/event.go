package model

import (
	"time"

	"github.com/samber/mo"
)

// UpcomingEvent is one entry of a computed schedule view. The set of
// implementations is closed: DefaultRaidOccurrence, ExceptionalRaidOccurrence
// and AbsenceOccurrence.
type UpcomingEvent interface {
	// ReferenceInstant is used for sorting and for horizon comparisons.
	ReferenceInstant() time.Time
	upcomingEvent()
}

// Cancellation is the overlay state of a default raid occurrence.
type Cancellation struct {
	IsCancelled bool              `json:"isCancelled"`
	Comment     mo.Option[string] `json:"comment"`
}

// DefaultRaidOccurrence is a concrete occurrence generated from the weekly
// pattern.
type DefaultRaidOccurrence struct {
	Instant      time.Time
	Comment      mo.Option[string]
	Cancellation Cancellation
}

func (e DefaultRaidOccurrence) ReferenceInstant() time.Time { return e.Instant }
func (DefaultRaidOccurrence) upcomingEvent()                {}

type ExceptionalRaidOccurrence struct {
	Instant time.Time
	Comment mo.Option[string]
}

func (e ExceptionalRaidOccurrence) ReferenceInstant() time.Time { return e.Instant }
func (ExceptionalRaidOccurrence) upcomingEvent()                {}

// AbsenceOccurrence is referenced at the start of its UTC day.
type AbsenceOccurrence struct {
	Date    Date
	UserID  string
	Comment mo.Option[string]
}

func (e AbsenceOccurrence) ReferenceInstant() time.Time { return e.Date.StartOfDay() }
func (AbsenceOccurrence) upcomingEvent()                {}

// UpcomingSchedule is the result of a schedule query, ready for rendering in
// TimezoneID.
type UpcomingSchedule struct {
	TimezoneID     string
	UpcomingEvents []UpcomingEvent
}

// IsRaid reports whether e counts as a raid (default or exceptional).
func IsRaid(e UpcomingEvent) bool {
	switch e.(type) {
	case DefaultRaidOccurrence, ExceptionalRaidOccurrence:
		return true
	case AbsenceOccurrence:
		return false
	default:
		panic("model: unknown upcoming event type")
	}
}
