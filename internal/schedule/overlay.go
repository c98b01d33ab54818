package schedule

import (
	"slices"
	"time"

	"raidsched/internal/model"
)

// applyCancellations marks every occurrence whose instant equals a
// cancellation timestamp exactly. There is no tolerance window.
func applyCancellations(occurrences []model.DefaultRaidOccurrence, cancelled []model.CancelledDefaultRaid) []model.DefaultRaidOccurrence {
	out := make([]model.DefaultRaidOccurrence, len(occurrences))
	for i, occ := range occurrences {
		j := slices.IndexFunc(cancelled, func(c model.CancelledDefaultRaid) bool {
			return c.Timestamp.Equal(occ.Instant)
		})
		if j >= 0 {
			occ.Cancellation = model.Cancellation{IsCancelled: true, Comment: cancelled[j].Comment}
		}
		out[i] = occ
	}
	return out
}

func raidEvents(occurrences []model.DefaultRaidOccurrence, exceptional []model.ExceptionalRaid) []model.UpcomingEvent {
	events := make([]model.UpcomingEvent, 0, len(occurrences)+len(exceptional))
	for _, occ := range occurrences {
		events = append(events, occ)
	}
	for _, raid := range exceptional {
		events = append(events, model.ExceptionalRaidOccurrence{Instant: raid.Timestamp.UTC(), Comment: raid.Comment})
	}
	return events
}

func absenceEvents(absences []model.Absence) []model.UpcomingEvent {
	events := make([]model.UpcomingEvent, 0, len(absences))
	for _, a := range absences {
		events = append(events, model.AbsenceOccurrence{Date: a.Date, UserID: a.UserID, Comment: a.Comment})
	}
	return events
}

// dropBefore removes events whose reference instant is strictly before t.
func dropBefore(events []model.UpcomingEvent, t time.Time) []model.UpcomingEvent {
	return slices.DeleteFunc(events, func(e model.UpcomingEvent) bool {
		return e.ReferenceInstant().Before(t)
	})
}

// dropAfter removes events whose reference instant is strictly after t.
func dropAfter(events []model.UpcomingEvent, t time.Time) []model.UpcomingEvent {
	return slices.DeleteFunc(events, func(e model.UpcomingEvent) bool {
		return e.ReferenceInstant().After(t)
	})
}

// sortEvents orders by reference instant. Ties keep insertion order.
func sortEvents(events []model.UpcomingEvent) {
	slices.SortStableFunc(events, func(a, b model.UpcomingEvent) int {
		return a.ReferenceInstant().Compare(b.ReferenceInstant())
	})
}

// mergeUntil builds the full event stream between now and horizon (both
// inclusive): the default raid occurrences with their cancellation overlay,
// every exceptional raid and every absence.
func mergeUntil(s model.Schedule, now, horizon time.Time) ([]model.UpcomingEvent, error) {
	occurrences, err := expandDefaultRaids(s.DefaultRaidSchedule.DefaultRaids, now, horizon)
	if err != nil {
		return nil, err
	}
	occurrences = applyCancellations(occurrences, s.CancelledDefaultRaids)

	events := raidEvents(occurrences, s.ExceptionalRaids)
	events = append(events, absenceEvents(s.Absences)...)
	events = dropAfter(events, horizon)
	events = dropBefore(events, now)
	sortEvents(events)
	return events, nil
}
