package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// DateLayout calendar date format used in reasons and query params.
const DateLayout = "2006-01-02"

const (
	rangeSeparator         = "–" // en-dash
	fallbackRangeSeparator = "-"
)

// ErrInvalidTimeOfDay malformed "HH:mm" value.
var ErrInvalidTimeOfDay = errors.New("invalid time of day")

// Interval minutes since midnight, start inclusive, end exclusive.
type Interval struct {
	StartMinutes int `json:"start_minutes"`
	EndMinutes   int `json:"end_minutes"`
}

// Overlaps half-open overlap test: touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.StartMinutes < o.EndMinutes && i.EndMinutes > o.StartMinutes
}

// Contains reports whether o lies within i, boundaries inclusive.
func (i Interval) Contains(o Interval) bool {
	return o.StartMinutes >= i.StartMinutes && o.EndMinutes <= i.EndMinutes
}

// String formats as "HH:mm – HH:mm".
func (i Interval) String() string {
	return FormatMinutes(i.StartMinutes) + " " + rangeSeparator + " " + FormatMinutes(i.EndMinutes)
}

// TimeToMinutes converts "HH:mm" to minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hh, mm := parts[0], parts[1]
	if len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return hour*60 + minute, nil
}

// FormatMinutes converts minutes since midnight back to "HH:mm".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseTimeRange builds an interval from two "HH:mm" values. ok is false when
// either value is malformed or start is not before end.
func ParseTimeRange(start, end string) (Interval, bool) {
	s, err := TimeToMinutes(start)
	if err != nil {
		return Interval{}, false
	}
	e, err := TimeToMinutes(end)
	if err != nil {
		return Interval{}, false
	}
	if s >= e {
		return Interval{}, false
	}
	return Interval{StartMinutes: s, EndMinutes: e}, true
}

// ParseClassTimeRange parses "HH:mm – HH:mm". A plain hyphen is accepted only
// when the string contains no en-dash. ok=false means the interval cannot be
// determined; callers must treat it as a format error, never as a default.
func ParseClassTimeRange(s string) (Interval, bool) {
	sep := rangeSeparator
	if !strings.Contains(s, sep) {
		sep = fallbackRangeSeparator
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return Interval{}, false
	}
	start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if start == "" || end == "" {
		return Interval{}, false
	}
	return ParseTimeRange(start, end)
}

// FormatClassTimeRange canonical class time string for an interval.
func FormatClassTimeRange(i Interval) string {
	return i.String()
}

// NextCalendarDateForWeekday returns midnight (in from's location) of the
// next date falling on day, strictly after from's date: asking for today's
// weekday yields the date one week later.
func NextCalendarDateForWeekday(day model.WeekDay, from time.Time) (time.Time, bool) {
	target, ok := day.Weekday()
	if !ok {
		return time.Time{}, false
	}
	offset := (int(target) - int(from.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return StartOfDay(from).AddDate(0, 0, offset), true
}

// StartOfDay midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AtMinutes the instant m minutes after midnight of day's date.
func AtMinutes(day time.Time, m int) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, day.Location())
}

// SameDate compares calendar dates, each read in its own location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
