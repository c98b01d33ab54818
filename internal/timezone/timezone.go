// Package timezone converts the wall-clock strings entered by users into UTC
// instants and weekly UTC slots.
//
// Every function is pure. Failures are reported through the sentinel errors
// below and never panic.
package timezone

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"raidsched/internal/model"

	// Zone ids are validated against the embedded database so that results do
	// not depend on the host's /usr/share/zoneinfo.
	_ "time/tzdata"
)

const (
	// DateLayout is the DD/MM/YYYY layout accepted for dates.
	DateLayout = "02/01/2006"
	// TimeLayout is the HH:MM 24h layout accepted for times.
	TimeLayout = "15:04"
)

var (
	ErrInvalidDate    = errors.New("timezone: invalid date, expected DD/MM/YYYY")
	ErrInvalidTime    = errors.New("timezone: invalid time, expected HH:MM")
	ErrInvalidZone    = errors.New("timezone: unknown time zone id")
	ErrInvalidWeekday = errors.New("timezone: unknown day of week")
)

// fixedOffsetPattern matches ids such as "UTC+3", "GMT-05:30" or "+02:00".
var fixedOffsetPattern = regexp.MustCompile(`^(?:UTC|GMT|UT)?([+-])(\d{1,2})(?::?(\d{2}))?$`)

var weekdays = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// ParseDate parses a strict DD/MM/YYYY date.
func ParseDate(s string) (model.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return model.DateOf(t), nil
}

// ParseTime parses a strict HH:MM time with hour in 0..23 and minute in 0..59.
func ParseTime(s string) (hour, minute int, err error) {
	if len(s) != len(TimeLayout) || s[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	t, perr := time.Parse(TimeLayout, s)
	if perr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseWeekday matches the English day name exactly ("Monday".."Sunday").
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdays[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return d, nil
}

// IsValidZoneID reports whether id resolves to a time zone.
func IsValidZoneID(id string) bool {
	_, err := LoadZone(id)
	return err == nil
}

// LoadZone resolves an IANA zone id or a fixed UTC offset id.
// "Local" and the empty id are rejected.
func LoadZone(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZone, id)
	}
	if m := fixedOffsetPattern.FindStringSubmatch(id); m != nil {
		return fixedZone(id, m)
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZone, id)
	}
	return loc, nil
}

func fixedZone(id string, m []string) (*time.Location, error) {
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 18 || minutes > 59 || (hours == 18 && minutes > 0) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidZone, id)
	}
	offset := hours*3600 + minutes*60
	if m[1] == "-" {
		offset = -offset
	}
	return time.FixedZone(id, offset), nil
}

// LocalToUTC returns the instant of the wall-clock date and time in loc.
// Wall-clock times skipped by a DST transition are normalized forward.
func LocalToUTC(d model.Date, hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc).UTC()
}

// referenceDay is the local calendar day on which pattern times are
// normalized: the Unix epoch seen from loc. January 1970 is outside DST for
// northern-hemisphere zones, and using a fixed day keeps results stable.
func referenceDay(loc *time.Location) time.Time {
	e := time.Unix(0, 0).In(loc)
	return time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, loc)
}

// ToUTCHourMinute maps a local hour and minute in loc to the UTC hour and
// minute on the fixed reference day.
func ToUTCHourMinute(hour, minute int, loc *time.Location) (hourUTC, minuteUTC int) {
	_, h, m := ToUTCSlot(time.Monday, hour, minute, loc)
	return h, m
}

// ToUTCSlot normalizes a weekly local slot to UTC. The day of week moves with
// the time when the conversion crosses midnight.
func ToUTCSlot(day time.Weekday, hour, minute int, loc *time.Location) (time.Weekday, int, int) {
	ref := referenceDay(loc)
	local := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, loc)
	utc := local.UTC()
	refUTC := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	shift := int(utc.Sub(refUTC).Hours()) / 24
	if utc.Before(refUTC) {
		shift = -1
	}
	return shiftWeekday(day, shift), utc.Hour(), utc.Minute()
}

// FromUTCSlot is the inverse of ToUTCSlot.
func FromUTCSlot(day time.Weekday, hourUTC, minuteUTC int, loc *time.Location) (time.Weekday, int, int) {
	ref := referenceDay(loc)
	utc := time.Date(ref.Year(), ref.Month(), ref.Day(), hourUTC, minuteUTC, 0, 0, time.UTC)
	local := utc.In(loc)
	localDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	refUTC := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	shift := int(localDay.Sub(refUTC).Hours()) / 24
	return shiftWeekday(day, shift), local.Hour(), local.Minute()
}

func shiftWeekday(day time.Weekday, shift int) time.Weekday {
	return time.Weekday(((int(day)+shift)%7 + 7) % 7)
}
