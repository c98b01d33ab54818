package model

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

// Date is a calendar date without time of day, interpreted in UTC.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// StartOfDay is midnight UTC at the beginning of d.
func (d Date) StartOfDay() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.StartOfDay().Format(isoDateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse(isoDateLayout, string(b))
	if err != nil {
		return fmt.Errorf("model: invalid date %q: %w", b, err)
	}
	*d = DateOf(t)
	return nil
}
