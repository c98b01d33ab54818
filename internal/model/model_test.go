package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleCloneIsIndependent(t *testing.T) {
	orig := NewSchedule("CET")
	orig.DefaultRaidSchedule.DefaultRaids = append(orig.DefaultRaidSchedule.DefaultRaids,
		DefaultRaid{DayOfWeek: time.Monday, HourUTC: 19, MinuteUTC: 0})
	orig.Absences = append(orig.Absences, Absence{Date: Date{2021, time.November, 8}, UserID: "u1"})

	cp := orig.Clone()
	cp.DefaultRaidSchedule.DefaultRaids[0].HourUTC = 20
	cp.Absences = append(cp.Absences, Absence{Date: Date{2021, time.November, 9}, UserID: "u2"})
	cp.DefaultRaidSchedule.DefaultTimezoneID = "UTC"

	assert.Equal(t, 19, orig.DefaultRaidSchedule.DefaultRaids[0].HourUTC)
	assert.Len(t, orig.Absences, 1)
	assert.Equal(t, "CET", orig.DefaultRaidSchedule.DefaultTimezoneID)
}

func TestCloneTurnsNilSlicesIntoEmpty(t *testing.T) {
	var s Schedule
	cp := s.Clone()
	assert.NotNil(t, cp.DefaultRaidSchedule.DefaultRaids)
	assert.NotNil(t, cp.CancelledDefaultRaids)
	assert.NotNil(t, cp.ExceptionalRaids)
	assert.NotNil(t, cp.Absences)
}

func TestDefaultRaidMatches(t *testing.T) {
	raid := DefaultRaid{DayOfWeek: time.Monday, HourUTC: 19, MinuteUTC: 30}
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	assert.True(t, raid.Matches(time.Date(2021, 11, 8, 19, 30, 0, 0, time.UTC)))
	// Same instant expressed in another zone.
	assert.True(t, raid.Matches(time.Date(2021, 11, 8, 20, 30, 0, 0, paris)))
	assert.False(t, raid.Matches(time.Date(2021, 11, 9, 19, 30, 0, 0, time.UTC)))
	assert.False(t, raid.Matches(time.Date(2021, 11, 8, 19, 31, 0, 0, time.UTC)))
}

func TestDefaultRaidScheduleFind(t *testing.T) {
	s := DefaultRaidSchedule{DefaultRaids: []DefaultRaid{
		{DayOfWeek: time.Monday, HourUTC: 19, Comment: mo.Some("main")},
		{DayOfWeek: time.Thursday, HourUTC: 20},
	}}

	r, ok := s.Find(Slot{DayOfWeek: time.Monday, HourUTC: 19})
	require.True(t, ok)
	assert.Equal(t, mo.Some("main"), r.Comment)

	_, ok = s.Find(Slot{DayOfWeek: time.Monday, HourUTC: 20})
	assert.False(t, ok)
}

func TestAbsenceReferenceInstantIsStartOfUTCDay(t *testing.T) {
	ev := AbsenceOccurrence{Date: Date{2021, time.November, 8}, UserID: "u1"}
	assert.Equal(t, time.Date(2021, 11, 8, 0, 0, 0, 0, time.UTC), ev.ReferenceInstant())
	assert.False(t, IsRaid(ev))
	assert.True(t, IsRaid(ExceptionalRaidOccurrence{}))
	assert.True(t, IsRaid(DefaultRaidOccurrence{}))
}

func TestScheduleDocumentShape(t *testing.T) {
	s := NewSchedule("CET")
	s.Absences = append(s.Absences, Absence{Date: Date{2021, time.November, 8}, UserID: "u1"})
	s.ExceptionalRaids = append(s.ExceptionalRaids, ExceptionalRaid{
		Timestamp: time.Date(2021, 11, 10, 18, 0, 0, 0, time.UTC),
		Comment:   mo.Some("alt run"),
	})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2021-11-08"`)
	assert.Contains(t, string(data), `"comment":null`)
	assert.Contains(t, string(data), `"comment":"alt run"`)

	var back Schedule
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}
