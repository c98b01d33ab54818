package schedule

import "raidsched/internal/model"

// Outcome is the tagged result of every engine operation. Validation
// failures, domain conflicts and persistence failures each have their own
// value; none of them is reported as a Go error.
type Outcome int

const (
	Success Outcome = iota
	// Failure means the schedule could not be read or written.
	Failure
	IncorrectTimezoneID
	IncorrectTimeFormat
	IncorrectDayOfWeek
	IncorrectDate
	DateIsInThePast
	RaidAlreadyExists
	RaidDoesNotExist
	RaidAlreadyCancelled
	NoRaidPlanned
	NothingToRevert
	NothingToCancel
	AbsenceAlreadyExists
	NoSuchAbsence
	IncorrectNumberOfRaids
	NothingToDisplay
)

// Outcomes lists every outcome, in declaration order.
var Outcomes = []Outcome{
	Success, Failure, IncorrectTimezoneID, IncorrectTimeFormat, IncorrectDayOfWeek,
	IncorrectDate, DateIsInThePast, RaidAlreadyExists, RaidDoesNotExist,
	RaidAlreadyCancelled, NoRaidPlanned, NothingToRevert, NothingToCancel,
	AbsenceAlreadyExists, NoSuchAbsence, IncorrectNumberOfRaids, NothingToDisplay,
}

var outcomeNames = map[Outcome]string{
	Success:                "success",
	Failure:                "failure",
	IncorrectTimezoneID:    "incorrect_timezone_id",
	IncorrectTimeFormat:    "incorrect_time_format",
	IncorrectDayOfWeek:     "incorrect_day_of_week",
	IncorrectDate:          "incorrect_date",
	DateIsInThePast:        "date_is_in_the_past",
	RaidAlreadyExists:      "raid_already_exists",
	RaidDoesNotExist:       "raid_does_not_exist",
	RaidAlreadyCancelled:   "raid_already_cancelled",
	NoRaidPlanned:          "no_raid_planned",
	NothingToRevert:        "nothing_to_revert",
	NothingToCancel:        "nothing_to_cancel",
	AbsenceAlreadyExists:   "absence_already_exists",
	NoSuchAbsence:          "no_such_absence",
	IncorrectNumberOfRaids: "incorrect_number_of_raids",
	NothingToDisplay:       "nothing_to_display",
}

var outcomeMessages = map[Outcome]string{
	Success:                "Done!",
	Failure:                "Sorry, something went wrong...",
	IncorrectTimezoneID:    "Sorry, this timezone ID seems to be invalid... Use an IANA id such as `Europe/Paris`, `CET` or `UTC+3`.",
	IncorrectTimeFormat:    "Sorry, the time you used seems to be invalid... Make sure you are writing it as `HH:MM`.",
	IncorrectDayOfWeek:     "Sorry, the day of the week you used seems to be invalid... Use `Monday` to `Sunday`.",
	IncorrectDate:          "Sorry, the date you used seems to be invalid... Make sure you are writing it as `DD/MM/YYYY`.",
	DateIsInThePast:        "This date is in the past, please use a future date.",
	RaidAlreadyExists:      "It seems that this raid already exists!",
	RaidDoesNotExist:       "It seems that this raid does not exist!",
	RaidAlreadyCancelled:   "It seems that this raid is already cancelled!",
	NoRaidPlanned:          "It seems that no raid is planned on that day!",
	NothingToRevert:        "It seems that this raid was not cancelled!",
	NothingToCancel:        "Sorry, there is no exceptional raid to cancel at that date...",
	AbsenceAlreadyExists:   "It seems that this absence already exists!",
	NoSuchAbsence:          "It seems that this absence does not exist!",
	IncorrectNumberOfRaids: "This number of raids is invalid. Please use a number that is equal to or higher than 1.",
	NothingToDisplay:       "Sorry, it seems that there is nothing to display...",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// Message is the user-facing text for o.
func (o Outcome) Message() string {
	return outcomeMessages[o]
}

// ScheduleResult is returned by the query operations. Default is set for a
// successful GetDefaultSchedule, Upcoming for the other successful queries.
type ScheduleResult struct {
	Outcome  Outcome
	Default  *model.DefaultRaidSchedule
	Upcoming *model.UpcomingSchedule
}
