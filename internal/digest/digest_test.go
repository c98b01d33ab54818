package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"raidsched/internal/config"
	appLog "raidsched/internal/log"
	"raidsched/internal/model"
	"raidsched/internal/schedule"
	"raidsched/internal/store"
)

// Thursday 2021-11-04 17:42 UTC.
var now = time.Date(2021, time.November, 4, 17, 42, 0, 0, time.UTC)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, d Digest) error {
	return m.Called(ctx, d).Error(0)
}

func seededEngine(t *testing.T) *schedule.Engine {
	t.Helper()
	st := store.NewMemoryStore("CET")
	s := model.NewSchedule("CET")
	s.DefaultRaidSchedule.DefaultRaids = []model.DefaultRaid{{DayOfWeek: time.Monday, HourUTC: 19}}
	s.CancelledDefaultRaids = []model.CancelledDefaultRaid{{
		Timestamp: time.Date(2021, time.November, 15, 19, 0, 0, 0, time.UTC),
		Comment:   mo.Some("patch"),
	}}
	s.Absences = []model.Absence{{Date: model.Date{Year: 2021, Month: time.November, Day: 8}, UserID: "1234"}}
	require.NoError(t, st.UpdateSchedule(context.Background(), "42", s))
	return schedule.NewEngine(st, schedule.FixedClock(now))
}

func TestJobRun(t *testing.T) {
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.MatchedBy(func(d Digest) bool {
		return d.CommunityID == "42" && len(d.Schedule.UpcomingEvents) == 3 && d.GeneratedAt.Equal(now)
	})).Return(nil).Once()

	job := NewJob(seededEngine(t), n, schedule.FixedClock(now), config.DigestConfig{
		Count:       2,
		Communities: []string{"42", "empty"},
	})
	require.NoError(t, job.Run(context.Background()))
	n.AssertExpectations(t)
}

func TestJobRun_CollectsErrors(t *testing.T) {
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("down"))

	job := NewJob(seededEngine(t), n, nil, config.DigestConfig{Count: 0, Communities: []string{"42"}})
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect_number_of_raids")
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)

	job = NewJob(seededEngine(t), n, nil, config.DigestConfig{Count: 1, Communities: []string{"42"}})
	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
}

func TestLines(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	view := model.UpcomingSchedule{TimezoneID: "Europe/Paris", UpcomingEvents: []model.UpcomingEvent{
		model.AbsenceOccurrence{Date: model.Date{Year: 2021, Month: time.November, Day: 8}, UserID: "1234", Comment: mo.Some("sick")},
		model.DefaultRaidOccurrence{Instant: time.Date(2021, time.November, 8, 19, 0, 0, 0, time.UTC), Comment: mo.Some("prog")},
		model.DefaultRaidOccurrence{
			Instant:      time.Date(2021, time.November, 15, 19, 0, 0, 0, time.UTC),
			Cancellation: model.Cancellation{IsCancelled: true, Comment: mo.Some("patch")},
		},
		model.ExceptionalRaidOccurrence{Instant: time.Date(2021, time.November, 13, 20, 0, 0, 0, time.UTC)},
	}}

	assert.Equal(t, []string{
		"Absent on Mon 08/11/2021: 1234 (sick)",
		"Raid Mon 08/11/2021 20:00: prog",
		"Raid Mon 15/11/2021 20:00 (cancelled): patch",
		"Exceptional raid Sat 13/11/2021 21:00",
	}, Lines(view, paris))
}

func TestWebhookNotifier(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := Digest{
		CommunityID: "42",
		GeneratedAt: now,
		Schedule: model.UpcomingSchedule{TimezoneID: "UTC", UpcomingEvents: []model.UpcomingEvent{
			model.ExceptionalRaidOccurrence{Instant: time.Date(2021, time.November, 13, 20, 0, 0, 0, time.UTC)},
		}},
	}
	require.NoError(t, NewWebhookNotifier(srv.URL).Notify(context.Background(), d))
	assert.Equal(t, "42", got.Community)
	assert.Equal(t, "UTC", got.TimezoneID)
	assert.Equal(t, []string{"Exceptional raid Sat 13/11/2021 20:00"}, got.Lines)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Notify(context.Background(), Digest{CommunityID: "42"})
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	job := NewJob(seededEngine(t), LogNotifier{}, nil, config.DigestConfig{Count: 1})

	c, err := Schedule(job, "0 18 * * 1", time.Minute)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = Schedule(job, "every monday", time.Minute)
	assert.Error(t, err)
}

func TestRunScheduled_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	t.Cleanup(func() { appLog.SetOutput(os.Stderr) })

	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("down"))
	job := NewJob(seededEngine(t), n, schedule.FixedClock(now), config.DigestConfig{Count: 1, Communities: []string{"42"}})

	runScheduled(job, time.Minute)
	out := buf.String()
	assert.Contains(t, out, "scheduled digest run failed")
	assert.Contains(t, out, "down")

	buf.Reset()
	ok := NewJob(seededEngine(t), LogNotifier{}, schedule.FixedClock(now), config.DigestConfig{Count: 1, Communities: []string{"empty"}})
	runScheduled(ok, time.Minute)
	assert.NotContains(t, buf.String(), "scheduled digest run failed")
}
