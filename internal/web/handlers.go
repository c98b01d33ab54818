package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"raidsched/internal/ics"
	appLog "raidsched/internal/log"
	"raidsched/internal/model"
	"raidsched/internal/schedule"
)

const maxBodyBytes = 16 << 10

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/communities/{community}/schedule").Subrouter()
	api.HandleFunc("/default", s.handleGetDefault).Methods(http.MethodGet)
	api.HandleFunc("/timezone", s.handleSetTimezone).Methods(http.MethodPut)
	api.HandleFunc("/default-raids", s.handleAddDefaultRaid).Methods(http.MethodPost)
	api.HandleFunc("/default-raids", s.handleRemoveDefaultRaid).Methods(http.MethodDelete)
	api.HandleFunc("/cancellations", s.handleCancelDefaultRaid).Methods(http.MethodPost)
	api.HandleFunc("/cancellations", s.handleRevertCancellation).Methods(http.MethodDelete)
	api.HandleFunc("/exceptional-raids", s.handleAddExceptionalRaid).Methods(http.MethodPost)
	api.HandleFunc("/exceptional-raids", s.handleCancelExceptionalRaid).Methods(http.MethodDelete)
	api.HandleFunc("/absences", s.handleAddAbsence).Methods(http.MethodPost)
	api.HandleFunc("/absences", s.handleRemoveAbsence).Methods(http.MethodDelete)
	api.HandleFunc("/upcoming", s.handleUpcoming).Methods(http.MethodGet)
	api.HandleFunc("/upcoming.ics", s.handleUpcomingICS).Methods(http.MethodGet)
}

func community(r *http.Request) string {
	return mux.Vars(r)["community"]
}

// decode reads a JSON body into dst and validates it. On failure the error
// response is already written and false is returned.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func writeOutcome(w http.ResponseWriter, out schedule.Outcome) {
	writeJSON(w, statusFor(out), newOutcomeResponse(out))
}

func (s *Server) handleGetDefault(w http.ResponseWriter, r *http.Request) {
	res := s.engine.GetDefaultSchedule(r.Context(), community(r))
	resp := newOutcomeResponse(res.Outcome)
	if res.Default != nil {
		resp.DefaultSchedule = toDefaultScheduleDTO(*res.Default)
	}
	writeJSON(w, statusFor(res.Outcome), resp)
}

func (s *Server) handleSetTimezone(w http.ResponseWriter, r *http.Request) {
	var req timezoneRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.SetDefaultTimezone(r.Context(), community(r), req.Timezone))
}

func (s *Server) handleAddDefaultRaid(w http.ResponseWriter, r *http.Request) {
	var req defaultRaidRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, def := s.engine.AddDefaultRaid(r.Context(), community(r), req.Day, req.Time, req.Timezone, optional(req.Comment))
	resp := newOutcomeResponse(out)
	if out == schedule.Success {
		resp.DefaultSchedule = toDefaultScheduleDTO(def)
	}
	writeJSON(w, statusFor(out), resp)
}

func (s *Server) handleRemoveDefaultRaid(w http.ResponseWriter, r *http.Request) {
	var req defaultRaidRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.RemoveDefaultRaid(r.Context(), community(r), req.Day, req.Time, req.Timezone))
}

func (s *Server) handleCancelDefaultRaid(w http.ResponseWriter, r *http.Request) {
	var req instantRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.CancelDefaultRaid(r.Context(), community(r), req.Date, req.Time, req.Timezone, optional(req.Comment)))
}

func (s *Server) handleRevertCancellation(w http.ResponseWriter, r *http.Request) {
	var req instantRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.RevertDefaultRaidCancellation(r.Context(), community(r), req.Date, req.Time, req.Timezone))
}

func (s *Server) handleAddExceptionalRaid(w http.ResponseWriter, r *http.Request) {
	var req instantRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.AddExceptionalRaid(r.Context(), community(r), req.Date, req.Time, req.Timezone, optional(req.Comment)))
}

func (s *Server) handleCancelExceptionalRaid(w http.ResponseWriter, r *http.Request) {
	var req instantRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.CancelExceptionalRaid(r.Context(), community(r), req.Date, req.Time, req.Timezone))
}

func (s *Server) handleAddAbsence(w http.ResponseWriter, r *http.Request) {
	var req absenceRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.AddAbsence(r.Context(), community(r), req.Date, req.UserID, optional(req.Comment)))
}

func (s *Server) handleRemoveAbsence(w http.ResponseWriter, r *http.Request) {
	var req absenceRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeOutcome(w, s.engine.RemoveAbsence(r.Context(), community(r), req.Date, req.UserID))
}

// upcoming runs the query selected by ?until=DD/MM/YYYY or ?count=N. It
// writes a 400 and returns false when the query string is unusable.
func (s *Server) upcoming(w http.ResponseWriter, r *http.Request) (schedule.ScheduleResult, bool) {
	q := r.URL.Query()
	params := upcomingQuery{
		Until:    q.Get("until"),
		Count:    q.Get("count"),
		Timezone: q.Get("timezone"),
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return schedule.ScheduleResult{}, false
	}

	zone := optionalString(params.Timezone)
	if params.Until != "" {
		return s.engine.GetScheduleByDate(r.Context(), community(r), params.Until, zone), true
	}
	n, err := strconv.Atoi(params.Count)
	if err != nil {
		writeError(w, http.StatusBadRequest, "count must be an integer")
		return schedule.ScheduleResult{}, false
	}
	return s.engine.GetScheduleByNumberOfRaids(r.Context(), community(r), n, zone), true
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	res, ok := s.upcoming(w, r)
	if !ok {
		return
	}
	resp := newOutcomeResponse(res.Outcome)
	if res.Upcoming != nil {
		resp.Upcoming = toUpcomingDTO(*res.Upcoming)
	}
	writeJSON(w, statusFor(res.Outcome), resp)
}

// handleUpcomingICS serves the same view as handleUpcoming as an iCalendar
// feed. An empty view yields an empty calendar so that subscriptions keep
// working.
func (s *Server) handleUpcomingICS(w http.ResponseWriter, r *http.Request) {
	res, ok := s.upcoming(w, r)
	if !ok {
		return
	}

	var view model.UpcomingSchedule
	switch {
	case res.Outcome == schedule.Success && res.Upcoming != nil:
		view = *res.Upcoming
	case res.Outcome == schedule.NothingToDisplay:
	default:
		writeOutcome(w, res.Outcome)
		return
	}

	opts := ics.Options{Stamp: s.clock.Now()}
	if s.cfg != nil {
		opts.Name = s.cfg.Feed.Name
		opts.RaidDuration = time.Duration(s.cfg.Feed.RaidDurationMinutes) * time.Minute
	}
	body, err := ics.Encode(community(r), view, opts)
	if err != nil {
		appLog.Error("ics export failed", err, "community", community(r))
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
