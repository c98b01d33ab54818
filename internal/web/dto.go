package web

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/mo"

	"raidsched/internal/model"
	"raidsched/internal/schedule"
	"raidsched/internal/timezone"
)

// Requests. Formats (dates, times, zones, day names) are checked by the
// engine so that they map to their own outcomes; validation here only
// covers presence and sizes.

type timezoneRequest struct {
	Timezone string `json:"timezone" validate:"required,max=64"`
}

type defaultRaidRequest struct {
	Day      string  `json:"day" validate:"required,max=16"`
	Time     string  `json:"time" validate:"required,max=8"`
	Timezone string  `json:"timezone" validate:"required,max=64"`
	Comment  *string `json:"comment" validate:"omitempty,max=500"`
}

type instantRequest struct {
	Date     string  `json:"date" validate:"required,max=16"`
	Time     string  `json:"time" validate:"required,max=8"`
	Timezone string  `json:"timezone" validate:"required,max=64"`
	Comment  *string `json:"comment" validate:"omitempty,max=500"`
}

type absenceRequest struct {
	Date    string  `json:"date" validate:"required,max=16"`
	UserID  string  `json:"userId" validate:"required,max=64"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

// upcomingQuery selects exactly one of the two query modes.
type upcomingQuery struct {
	Until    string `validate:"required_without=Count,excluded_with=Count,max=16"`
	Count    string `validate:"omitempty,numeric,max=6"`
	Timezone string `validate:"omitempty,max=64"`
}

func optional(p *string) mo.Option[string] {
	if p == nil {
		return mo.None[string]()
	}
	return mo.Some(*p)
}

func optionalString(s string) mo.Option[string] {
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}

// validationMessage flattens validator errors into a single line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// Responses.

type outcomeResponse struct {
	Outcome         string              `json:"outcome"`
	Message         string              `json:"message"`
	DefaultSchedule *defaultScheduleDTO `json:"defaultSchedule,omitempty"`
	Upcoming        *upcomingDTO        `json:"upcoming,omitempty"`
}

type defaultRaidDTO struct {
	DayOfWeek      string            `json:"dayOfWeek"`
	HourUTC        int               `json:"hourUTC"`
	MinuteUTC      int               `json:"minuteUTC"`
	LocalDayOfWeek string            `json:"localDayOfWeek"`
	LocalTime      string            `json:"localTime"`
	Comment        mo.Option[string] `json:"comment"`
}

type defaultScheduleDTO struct {
	TimezoneID   string           `json:"timezoneId"`
	DefaultRaids []defaultRaidDTO `json:"defaultRaids"`
}

type eventDTO struct {
	Type                string             `json:"type"`
	Instant             *time.Time         `json:"instant,omitempty"`
	Local               string             `json:"local,omitempty"`
	Date                string             `json:"date,omitempty"`
	UserID              string             `json:"userId,omitempty"`
	Comment             mo.Option[string]  `json:"comment"`
	Cancelled           bool               `json:"cancelled,omitempty"`
	CancellationComment *mo.Option[string] `json:"cancellationComment,omitempty"`
}

type upcomingDTO struct {
	TimezoneID string     `json:"timezoneId"`
	Events     []eventDTO `json:"events"`
}

func newOutcomeResponse(out schedule.Outcome) outcomeResponse {
	return outcomeResponse{Outcome: out.String(), Message: out.Message()}
}

// displayZone resolves id for rendering, falling back to UTC when a stored
// zone no longer resolves.
func displayZone(id string) *time.Location {
	loc, err := timezone.LoadZone(id)
	if err != nil {
		return time.UTC
	}
	return loc
}

func toDefaultScheduleDTO(def model.DefaultRaidSchedule) *defaultScheduleDTO {
	loc := displayZone(def.DefaultTimezoneID)
	raids := make([]defaultRaidDTO, 0, len(def.DefaultRaids))
	for _, r := range def.DefaultRaids {
		day, h, m := timezone.FromUTCSlot(r.DayOfWeek, r.HourUTC, r.MinuteUTC, loc)
		raids = append(raids, defaultRaidDTO{
			DayOfWeek:      r.DayOfWeek.String(),
			HourUTC:        r.HourUTC,
			MinuteUTC:      r.MinuteUTC,
			LocalDayOfWeek: day.String(),
			LocalTime:      fmt.Sprintf("%02d:%02d", h, m),
			Comment:        r.Comment,
		})
	}
	return &defaultScheduleDTO{TimezoneID: def.DefaultTimezoneID, DefaultRaids: raids}
}

func toUpcomingDTO(view model.UpcomingSchedule) *upcomingDTO {
	loc := displayZone(view.TimezoneID)
	events := make([]eventDTO, 0, len(view.UpcomingEvents))
	for _, ev := range view.UpcomingEvents {
		switch e := ev.(type) {
		case model.DefaultRaidOccurrence:
			at := e.Instant.UTC()
			dto := eventDTO{
				Type:      "default_raid",
				Instant:   &at,
				Local:     at.In(loc).Format(time.RFC3339),
				Comment:   e.Comment,
				Cancelled: e.Cancellation.IsCancelled,
			}
			if e.Cancellation.IsCancelled {
				c := e.Cancellation.Comment
				dto.CancellationComment = &c
			}
			events = append(events, dto)
		case model.ExceptionalRaidOccurrence:
			at := e.Instant.UTC()
			events = append(events, eventDTO{
				Type:    "exceptional_raid",
				Instant: &at,
				Local:   at.In(loc).Format(time.RFC3339),
				Comment: e.Comment,
			})
		case model.AbsenceOccurrence:
			events = append(events, eventDTO{
				Type:    "absence",
				Date:    e.Date.String(),
				UserID:  e.UserID,
				Comment: e.Comment,
			})
		}
	}
	return &upcomingDTO{TimezoneID: view.TimezoneID, Events: events}
}
