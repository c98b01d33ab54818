package web

import (
	"net/http"

	"raidsched/internal/schedule"
)

var outcomeStatus = map[schedule.Outcome]int{
	schedule.Success:                http.StatusOK,
	schedule.Failure:                http.StatusServiceUnavailable,
	schedule.IncorrectTimezoneID:    http.StatusBadRequest,
	schedule.IncorrectTimeFormat:    http.StatusBadRequest,
	schedule.IncorrectDayOfWeek:     http.StatusBadRequest,
	schedule.IncorrectDate:          http.StatusBadRequest,
	schedule.IncorrectNumberOfRaids: http.StatusBadRequest,
	schedule.DateIsInThePast:        http.StatusUnprocessableEntity,
	schedule.NoRaidPlanned:          http.StatusUnprocessableEntity,
	schedule.RaidAlreadyExists:      http.StatusConflict,
	schedule.RaidAlreadyCancelled:   http.StatusConflict,
	schedule.AbsenceAlreadyExists:   http.StatusConflict,
	schedule.RaidDoesNotExist:       http.StatusNotFound,
	schedule.NothingToRevert:        http.StatusNotFound,
	schedule.NothingToCancel:        http.StatusNotFound,
	schedule.NoSuchAbsence:          http.StatusNotFound,
	schedule.NothingToDisplay:       http.StatusNotFound,
}

func statusFor(out schedule.Outcome) int {
	if code, ok := outcomeStatus[out]; ok {
		return code
	}
	return http.StatusInternalServerError
}
