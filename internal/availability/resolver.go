package availability

import (
	"fmt"
	"time"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// Rejection reasons surfaced verbatim to the admin or coach.
const (
	ReasonInvalidTimeFormat = "Invalid class time format."
	ReasonOutsideRecurring  = "Requested time is outside the coach's recurring weekly availability."
)

// CheckParams input snapshot of one availability decision.
type CheckParams struct {
	CoachID        string
	Day            model.WeekDay
	Time           string // "HH:mm – HH:mm"
	Classes        []model.GymClass
	Availability   []model.CoachAvailability
	Unavailability []model.CoachUnavailability
	CheckDate      *time.Time // one-off blocks are only consulted when set
	IgnoreClassID  string     // the class being edited
}

// Result availability decision; Reason is empty when available.
type Result struct {
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason"`
}

// IsCoachAvailable decides whether the coach can take the candidate time.
// Checks run in order and the first failure wins:
//  1. the time string must parse
//  2. one-off blocks on CheckDate
//  3. containment in a recurring window for Day
//  4. overlap with another class of the coach on Day
func IsCoachAvailable(p CheckParams) Result {
	candidate, ok := ParseClassTimeRange(p.Time)
	if !ok {
		return rejected(ReasonInvalidTimeFormat)
	}

	if p.CheckDate != nil {
		if block, found := BlockingUnavailability(p.CoachID, *p.CheckDate, candidate, p.Unavailability); found {
			return rejected(BlockReason(block, *p.CheckDate))
		}
	}

	if !WithinRecurringAvailability(p.CoachID, p.Day, candidate, p.Availability) {
		return rejected(ReasonOutsideRecurring)
	}

	if class, found := ConflictingClass(p.CoachID, p.Day, candidate, p.Classes, p.IgnoreClassID); found {
		return rejected(ClassConflictReason(class))
	}

	return Result{IsAvailable: true}
}

// BlockingUnavailability returns the first one-off block of the coach on date
// that covers the candidate. Full-day rows always block; a row whose times do
// not parse is treated as full-day.
func BlockingUnavailability(coachID string, date time.Time, candidate Interval, blocks []model.CoachUnavailability) (model.CoachUnavailability, bool) {
	for _, b := range blocks {
		if b.CoachID != coachID || !SameDate(b.Date, date) {
			continue
		}
		if b.IsFullDay() {
			return b, true
		}
		blocked, ok := ParseTimeRange(*b.StartTime, *b.EndTime)
		if !ok || blocked.Overlaps(candidate) {
			return b, true
		}
	}
	return model.CoachUnavailability{}, false
}

// WithinRecurringAvailability reports whether some recurring window of the
// coach on day fully contains the candidate.
func WithinRecurringAvailability(coachID string, day model.WeekDay, candidate Interval, windows []model.CoachAvailability) bool {
	for _, w := range windows {
		if w.CoachID != coachID || w.DayOfWeek != day {
			continue
		}
		window, ok := ParseTimeRange(w.StartTime, w.EndTime)
		if ok && window.Contains(candidate) {
			return true
		}
	}
	return false
}

// ConflictingClass returns the first class of the coach on day overlapping
// the candidate. Classes whose time does not parse cannot be placed and are skipped.
func ConflictingClass(coachID string, day model.WeekDay, candidate Interval, classes []model.GymClass, ignoreClassID string) (model.GymClass, bool) {
	for _, c := range classes {
		if c.DayOfWeek != day || !c.AssignedTo(coachID) {
			continue
		}
		if ignoreClassID != "" && c.ClassID == ignoreClassID {
			continue
		}
		iv, ok := ParseClassTimeRange(c.Time)
		if ok && iv.Overlaps(candidate) {
			return c, true
		}
	}
	return model.GymClass{}, false
}

// BlockReason explains a one-off block.
func BlockReason(b model.CoachUnavailability, date time.Time) string {
	var reason string
	if b.IsFullDay() {
		reason = fmt.Sprintf("Coach is unavailable all day on %s.", date.Format(DateLayout))
	} else {
		reason = fmt.Sprintf("Coach is unavailable from %s to %s on %s.", *b.StartTime, *b.EndTime, date.Format(DateLayout))
	}
	if b.Reason != "" {
		reason += " (" + b.Reason + ")"
	}
	return reason
}

// ClassConflictReason explains a class overlap.
func ClassConflictReason(c model.GymClass) string {
	name := c.Name
	if name == "" {
		name = "class"
	}
	return fmt.Sprintf("Coach has a conflicting class at this time: %s on %s, %s.", name, c.DayOfWeek, c.Time)
}

func rejected(reason string) Result {
	return Result{IsAvailable: false, Reason: reason}
}
