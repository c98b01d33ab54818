package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"raidsched/internal/model"
	"raidsched/internal/store"
)

const community = "330000000000000001"

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetSchedule(ctx context.Context, communityID string) (model.Schedule, error) {
	args := m.Called(ctx, communityID)
	return args.Get(0).(model.Schedule), args.Error(1)
}

func (m *mockStore) UpdateSchedule(ctx context.Context, communityID string, s model.Schedule) error {
	args := m.Called(ctx, communityID, s)
	return args.Error(0)
}

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore("CET")
	return NewEngine(st, FixedClock(thursdayEvening)), st
}

func stored(t *testing.T, st store.Store) model.Schedule {
	t.Helper()
	s, err := st.GetSchedule(context.Background(), community)
	require.NoError(t, err)
	return s
}

func TestSetDefaultTimezone(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, IncorrectTimezoneID, e.SetDefaultTimezone(ctx, community, "Mars/Olympus"))
	assert.Equal(t, IncorrectTimezoneID, e.SetDefaultTimezone(ctx, community, ""))
	assert.Equal(t, "CET", stored(t, st).DefaultRaidSchedule.DefaultTimezoneID)

	assert.Equal(t, Success, e.SetDefaultTimezone(ctx, community, "Europe/Paris"))
	assert.Equal(t, "Europe/Paris", stored(t, st).DefaultRaidSchedule.DefaultTimezoneID)

	assert.Equal(t, Success, e.SetDefaultTimezone(ctx, community, "UTC+3"))
	assert.Equal(t, "UTC+3", stored(t, st).DefaultRaidSchedule.DefaultTimezoneID)

	assert.Equal(t, Success, e.SetDefaultTimezone(ctx, community, " Europe/Paris \n"))
	assert.Equal(t, "Europe/Paris", stored(t, st).DefaultRaidSchedule.DefaultTimezoneID)
}

func TestAddDefaultRaid(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	out, def := e.AddDefaultRaid(ctx, community, "Monday", "19:00", "UTC", mo.Some("main"))
	require.Equal(t, Success, out)
	assert.Equal(t, []model.DefaultRaid{
		{DayOfWeek: time.Monday, HourUTC: 19, MinuteUTC: 0, Comment: mo.Some("main")},
	}, def.DefaultRaids)
	assert.Equal(t, def, stored(t, st).DefaultRaidSchedule)

	// 20:00 in Paris on the reference day is 19:00 UTC.
	out, _ = e.AddDefaultRaid(ctx, community, "Monday", "20:00", "Europe/Paris", mo.None[string]())
	assert.Equal(t, RaidAlreadyExists, out)

	out, def = e.AddDefaultRaid(ctx, community, "Monday", "00:30", "CET", mo.None[string]())
	require.Equal(t, Success, out)
	assert.Contains(t, def.DefaultRaids, model.DefaultRaid{DayOfWeek: time.Sunday, HourUTC: 23, MinuteUTC: 30})
	assert.Len(t, stored(t, st).DefaultRaidSchedule.DefaultRaids, 2)
}

func TestAddDefaultRaid_ValidationOrder(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		day, clock, zone string
		want             Outcome
	}{
		{"Funday", "25:00", "Mars/Olympus", IncorrectTimezoneID},
		{"Funday", "25:00", "UTC", IncorrectTimeFormat},
		{"Monday", "7:00", "UTC", IncorrectTimeFormat},
		{"Monday", "19h00", "UTC", IncorrectTimeFormat},
		{"Funday", "19:00", "UTC", IncorrectDayOfWeek},
		{"monday", "19:00", "UTC", IncorrectDayOfWeek},
	}
	for _, tt := range tests {
		out, _ := e.AddDefaultRaid(ctx, community, tt.day, tt.clock, tt.zone, mo.None[string]())
		assert.Equal(t, tt.want, out, "%s %s %s", tt.day, tt.clock, tt.zone)
	}
	assert.Empty(t, stored(t, st).DefaultRaidSchedule.DefaultRaids)
}

func TestRemoveDefaultRaid(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, RaidDoesNotExist, e.RemoveDefaultRaid(ctx, community, "Monday", "19:00", "UTC"))

	out, _ := e.AddDefaultRaid(ctx, community, "Monday", "19:00", "UTC", mo.None[string]())
	require.Equal(t, Success, out)
	require.Equal(t, Success, e.CancelDefaultRaid(ctx, community, "08/11/2021", "19:00", "UTC", mo.None[string]()))

	assert.Equal(t, Success, e.RemoveDefaultRaid(ctx, community, "Monday", "20:00", "Europe/Paris"))
	s := stored(t, st)
	assert.Empty(t, s.DefaultRaidSchedule.DefaultRaids)
	assert.Len(t, s.CancelledDefaultRaids, 1, "cancellations are kept as history")

	assert.Equal(t, RaidDoesNotExist, e.RemoveDefaultRaid(ctx, community, "Monday", "19:00", "UTC"))
}

func TestCancelDefaultRaid(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	out, _ := e.AddDefaultRaid(ctx, community, "Monday", "19:00", "UTC", mo.None[string]())
	require.Equal(t, Success, out)

	assert.Equal(t, IncorrectTimezoneID, e.CancelDefaultRaid(ctx, community, "08/11/2021", "19:00", "Nowhere", mo.None[string]()))
	assert.Equal(t, IncorrectTimeFormat, e.CancelDefaultRaid(ctx, community, "08/11/2021", "19:60", "UTC", mo.None[string]()))
	assert.Equal(t, IncorrectDate, e.CancelDefaultRaid(ctx, community, "31/11/2021", "19:00", "UTC", mo.None[string]()))
	assert.Equal(t, IncorrectDate, e.CancelDefaultRaid(ctx, community, "2021-11-08", "19:00", "UTC", mo.None[string]()))
	assert.Equal(t, DateIsInThePast, e.CancelDefaultRaid(ctx, community, "01/11/2021", "19:00", "UTC", mo.None[string]()))
	assert.Equal(t, NoRaidPlanned, e.CancelDefaultRaid(ctx, community, "09/11/2021", "19:00", "UTC", mo.None[string]()))
	assert.Equal(t, NoRaidPlanned, e.CancelDefaultRaid(ctx, community, "08/11/2021", "19:01", "UTC", mo.None[string]()))

	assert.Equal(t, Success, e.CancelDefaultRaid(ctx, community, "08/11/2021", "20:00", "Europe/Paris", mo.Some("patch day")))
	assert.Equal(t, RaidAlreadyCancelled, e.CancelDefaultRaid(ctx, community, "08/11/2021", "19:00", "UTC", mo.None[string]()))

	assert.Equal(t, []model.CancelledDefaultRaid{
		{Timestamp: utc(time.November, 8, 19, 0), Comment: mo.Some("patch day")},
	}, stored(t, st).CancelledDefaultRaids)
}

func TestRevertDefaultRaidCancellation(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	out, _ := e.AddDefaultRaid(ctx, community, "Monday", "19:00", "UTC", mo.None[string]())
	require.Equal(t, Success, out)

	assert.Equal(t, NothingToRevert, e.RevertDefaultRaidCancellation(ctx, community, "08/11/2021", "19:00", "UTC"))
	require.Equal(t, Success, e.CancelDefaultRaid(ctx, community, "08/11/2021", "19:00", "UTC", mo.None[string]()))

	assert.Equal(t, IncorrectDate, e.RevertDefaultRaidCancellation(ctx, community, "8/11/21", "19:00", "UTC"))
	assert.Equal(t, Success, e.RevertDefaultRaidCancellation(ctx, community, "08/11/2021", "19:00", "UTC"))
	assert.Empty(t, stored(t, st).CancelledDefaultRaids)
	assert.Equal(t, NothingToRevert, e.RevertDefaultRaidCancellation(ctx, community, "08/11/2021", "19:00", "UTC"))
}

func TestExceptionalRaids(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, DateIsInThePast, e.AddExceptionalRaid(ctx, community, "04/11/2021", "17:41", "UTC", mo.None[string]()))
	assert.Equal(t, Success, e.AddExceptionalRaid(ctx, community, "04/11/2021", "17:42", "UTC", mo.None[string]()))
	assert.Equal(t, Success, e.AddExceptionalRaid(ctx, community, "13/11/2021", "21:00", "Europe/Paris", mo.Some("reclear")))
	assert.Equal(t, RaidAlreadyExists, e.AddExceptionalRaid(ctx, community, "13/11/2021", "20:00", "UTC", mo.None[string]()))

	s := stored(t, st)
	require.Len(t, s.ExceptionalRaids, 2)
	assert.Equal(t, model.ExceptionalRaid{Timestamp: utc(time.November, 13, 20, 0), Comment: mo.Some("reclear")}, s.ExceptionalRaids[1])

	assert.Equal(t, NothingToCancel, e.CancelExceptionalRaid(ctx, community, "14/11/2021", "20:00", "UTC"))
	assert.Equal(t, Success, e.CancelExceptionalRaid(ctx, community, "13/11/2021", "20:00", "UTC"))
	assert.Equal(t, NothingToCancel, e.CancelExceptionalRaid(ctx, community, "13/11/2021", "20:00", "UTC"))
	assert.Len(t, stored(t, st).ExceptionalRaids, 1)
}

func TestAbsences(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, DateIsInThePast, e.AddAbsence(ctx, community, "24/04/1970", "u1", mo.None[string]()))
	assert.Equal(t, DateIsInThePast, e.AddAbsence(ctx, community, "04/11/2021", "u1", mo.None[string]()))
	assert.Equal(t, IncorrectDate, e.AddAbsence(ctx, community, "29/02/2021", "u1", mo.None[string]()))

	assert.Equal(t, Success, e.AddAbsence(ctx, community, "05/11/2021", "u1", mo.Some("dentist")))
	assert.Equal(t, AbsenceAlreadyExists, e.AddAbsence(ctx, community, "05/11/2021", "u1", mo.None[string]()))
	assert.Equal(t, Success, e.AddAbsence(ctx, community, "05/11/2021", "u2", mo.None[string]()))
	assert.Len(t, stored(t, st).Absences, 2)

	assert.Equal(t, NoSuchAbsence, e.RemoveAbsence(ctx, community, "06/11/2021", "u1"))
	assert.Equal(t, DateIsInThePast, e.RemoveAbsence(ctx, community, "01/11/2021", "u1"))
	assert.Equal(t, Success, e.RemoveAbsence(ctx, community, "05/11/2021", "u1"))
	assert.Equal(t, NoSuchAbsence, e.RemoveAbsence(ctx, community, "05/11/2021", "u1"))

	assert.Equal(t, []model.Absence{
		{Date: model.Date{Year: 2021, Month: time.November, Day: 5}, UserID: "u2"},
	}, stored(t, st).Absences)
}

func TestMutations_StoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store down")

	t.Run("read", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetSchedule", ctx, community).Return(model.Schedule{}, boom)
		e := NewEngine(st, FixedClock(thursdayEvening))

		out, _ := e.AddDefaultRaid(ctx, community, "Monday", "19:00", "UTC", mo.None[string]())
		assert.Equal(t, Failure, out)
		assert.Equal(t, Failure, e.SetDefaultTimezone(ctx, community, "UTC"))
		assert.Equal(t, Failure, e.AddAbsence(ctx, community, "05/11/2021", "u1", mo.None[string]()))
		assert.Equal(t, Failure, e.GetDefaultSchedule(ctx, community).Outcome)
		assert.Equal(t, Failure, e.GetScheduleByNumberOfRaids(ctx, community, 1, mo.None[string]()).Outcome)
		st.AssertExpectations(t)
		st.AssertNotCalled(t, "UpdateSchedule", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("write", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetSchedule", ctx, community).Return(model.NewSchedule("CET"), nil)
		st.On("UpdateSchedule", ctx, community, mock.AnythingOfType("model.Schedule")).Return(boom)
		e := NewEngine(st, FixedClock(thursdayEvening))

		out, def := e.AddDefaultRaid(ctx, community, "Monday", "19:00", "UTC", mo.None[string]())
		assert.Equal(t, Failure, out)
		assert.Empty(t, def.DefaultRaids)
		assert.Equal(t, Failure, e.AddExceptionalRaid(ctx, community, "13/11/2021", "20:00", "UTC", mo.None[string]()))
		st.AssertExpectations(t)
	})

	t.Run("validation happens before reading", func(t *testing.T) {
		st := &mockStore{}
		e := NewEngine(st, FixedClock(thursdayEvening))

		assert.Equal(t, IncorrectDate, e.AddAbsence(ctx, community, "nope", "u1", mo.None[string]()))
		assert.Equal(t, DateIsInThePast, e.CancelDefaultRaid(ctx, community, "01/11/2021", "19:00", "UTC", mo.None[string]()))
		assert.Equal(t, IncorrectNumberOfRaids, e.GetScheduleByNumberOfRaids(ctx, community, 0, mo.None[string]()).Outcome)
		st.AssertNotCalled(t, "GetSchedule", mock.Anything, mock.Anything)
	})
}

func TestMutations_DoNotLeakIntoStoredValue(t *testing.T) {
	st := &mockStore{}
	base := model.NewSchedule("CET")
	ctx := context.Background()
	st.On("GetSchedule", ctx, community).Return(base, nil)
	st.On("UpdateSchedule", ctx, community, mock.AnythingOfType("model.Schedule")).Return(nil)

	e := NewEngine(st, FixedClock(thursdayEvening))
	require.Equal(t, Success, e.AddExceptionalRaid(ctx, community, "13/11/2021", "20:00", "UTC", mo.None[string]()))
	assert.Empty(t, base.ExceptionalRaids)
}
