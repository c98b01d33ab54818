package schedule

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"raidsched/internal/model"
)

const day = 24 * time.Hour

var rruleWeekdays = [7]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// walkedDays returns the half-open window of UTC calendar days visited by a
// day pointer that starts at now and advances 24h at a time while it is
// before horizon. The window is empty when now is not before horizon.
//
// The first day is the day of now, so occurrences earlier that day are part
// of the window and are removed later by the "now" filter.
func walkedDays(now, horizon time.Time) (start, end time.Time) {
	now = now.UTC()
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !now.Before(horizon) {
		return start, start
	}
	// Whole seconds rounded up, then whole days rounded up. time.Duration
	// saturates past ~292 years, so the difference is taken in seconds.
	secs := horizon.Unix() - now.Unix()
	if horizon.Nanosecond() > now.Nanosecond() {
		secs++
	}
	const secsPerDay = int64(day / time.Second)
	steps := (secs + secsPerDay - 1) / secsPerDay
	return start, start.AddDate(0, 0, int(steps))
}

// expandDefaultRaids materializes every occurrence of the weekly pattern on
// the days walked from now to horizon. Each raid becomes a WEEKLY rule
// anchored at the first walked day; all arithmetic stays in UTC.
// Occurrences are returned uncancelled.
func expandDefaultRaids(raids []model.DefaultRaid, now, horizon time.Time) ([]model.DefaultRaidOccurrence, error) {
	start, end := walkedDays(now, horizon)
	if !start.Before(end) || len(raids) == 0 {
		return nil, nil
	}

	sorted := slices.Clone(raids)
	slices.SortStableFunc(sorted, func(a, b model.DefaultRaid) int {
		if c := cmp.Compare(a.DayOfWeek, b.DayOfWeek); c != 0 {
			return c
		}
		if c := cmp.Compare(a.HourUTC, b.HourUTC); c != 0 {
			return c
		}
		return cmp.Compare(a.MinuteUTC, b.MinuteUTC)
	})

	out := make([]model.DefaultRaidOccurrence, 0)
	for _, raid := range sorted {
		if raid.DayOfWeek < time.Sunday || raid.DayOfWeek > time.Saturday {
			return nil, fmt.Errorf("expand: invalid day of week %d", int(raid.DayOfWeek))
		}
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   start,
			Byweekday: []rrule.Weekday{rruleWeekdays[raid.DayOfWeek]},
			Byhour:    []int{raid.HourUTC},
			Byminute:  []int{raid.MinuteUTC},
			Bysecond:  []int{0},
		})
		if err != nil {
			return nil, fmt.Errorf("expand: rule for %s %02d:%02d UTC: %w",
				raid.DayOfWeek, raid.HourUTC, raid.MinuteUTC, err)
		}

		for _, t := range rule.Between(start, end, true) {
			if !t.Before(end) {
				continue
			}
			out = append(out, model.DefaultRaidOccurrence{
				Instant: t.UTC(),
				Comment: raid.Comment,
			})
		}
	}
	return out, nil
}
