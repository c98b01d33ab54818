// Package ics renders a computed schedule view as an iCalendar feed so that
// members can subscribe to their community's raids from any calendar app.
package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"raidsched/internal/model"
)

const (
	productID           = "-//raidsched//Raid schedule//EN"
	DefaultRaidDuration = 3 * time.Hour
	uidTimeLayout       = "20060102T150405Z"
	uidDateLayout       = "20060102"
)

// Options controls the generated feed.
type Options struct {
	// Name is exposed as X-WR-CALNAME.
	Name string
	// RaidDuration is the length given to every raid. Zero means
	// DefaultRaidDuration.
	RaidDuration time.Duration
	// Stamp is written as DTSTAMP on every event.
	Stamp time.Time
}

// Encode builds a VCALENDAR with one VEVENT per raid occurrence and one
// all-day VEVENT per absence. UIDs are derived from the community and the
// event's instant, so repeated exports update events in place.
func Encode(communityID string, view model.UpcomingSchedule, opts Options) ([]byte, error) {
	if communityID == "" {
		return nil, errors.New("ics: empty community id")
	}
	if opts.RaidDuration <= 0 {
		opts.RaidDuration = DefaultRaidDuration
	}
	if opts.Name == "" {
		opts.Name = "Raids " + communityID
	}
	stamp := opts.Stamp.UTC()

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)
	if view.TimezoneID != "" {
		cal.SetXWRTimezone(view.TimezoneID)
	}

	for _, ev := range view.UpcomingEvents {
		switch e := ev.(type) {
		case model.DefaultRaidOccurrence:
			vev := cal.AddEvent(raidUID("raid", e.Instant, communityID))
			setRaidTimes(vev, e.Instant, opts.RaidDuration, stamp)
			if e.Cancellation.IsCancelled {
				vev.SetSummary("Raid (cancelled)")
				vev.SetStatus(ical.ObjectStatusCancelled)
				setDescription(vev, e.Cancellation.Comment.OrElse(e.Comment.OrEmpty()))
			} else {
				vev.SetSummary("Raid")
				vev.SetStatus(ical.ObjectStatusConfirmed)
				setDescription(vev, e.Comment.OrEmpty())
			}
		case model.ExceptionalRaidOccurrence:
			vev := cal.AddEvent(raidUID("exceptional", e.Instant, communityID))
			setRaidTimes(vev, e.Instant, opts.RaidDuration, stamp)
			vev.SetSummary("Exceptional raid")
			vev.SetStatus(ical.ObjectStatusConfirmed)
			setDescription(vev, e.Comment.OrEmpty())
		case model.AbsenceOccurrence:
			start := e.Date.StartOfDay()
			vev := cal.AddEvent(fmt.Sprintf("absence-%s-%s@%s", start.Format(uidDateLayout), e.UserID, communityID))
			vev.SetDtStampTime(stamp)
			vev.SetAllDayStartAt(start)
			vev.SetAllDayEndAt(start.AddDate(0, 0, 1))
			vev.SetSummary("Absent: " + e.UserID)
			setDescription(vev, e.Comment.OrEmpty())
		default:
			return nil, fmt.Errorf("ics: unsupported event %T", ev)
		}
	}

	return []byte(cal.Serialize()), nil
}

func raidUID(kind string, at time.Time, communityID string) string {
	return fmt.Sprintf("%s-%s@%s", kind, at.UTC().Format(uidTimeLayout), communityID)
}

func setRaidTimes(vev *ical.VEvent, at time.Time, d time.Duration, stamp time.Time) {
	vev.SetDtStampTime(stamp)
	vev.SetStartAt(at.UTC())
	vev.SetEndAt(at.UTC().Add(d))
}

func setDescription(vev *ical.VEvent, s string) {
	if s != "" {
		vev.SetDescription(s)
	}
}
