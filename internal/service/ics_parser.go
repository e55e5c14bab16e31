package service

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-resty/resty/v2"
	"github.com/teambition/rrule-go"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// ── ICS import ──────────────────────────────────────────────
//
// Turns an iCalendar feed (RFC 5545) into one-off coach blocks:
//   - all-day events block every date they cover
//   - timed events block their time range, split per date when they cross midnight
//   - RRULE is expanded in full (BYDAY, BYMONTHDAY, ...) minus EXDATE dates
//   - an event whose RRULE cannot be parsed fails the whole import
//   - TRANSPARENT (free) and CANCELLED events are ignored
// Only occurrences inside the import window are produced.
// ─────────────────────────────────────────────────────────────

var (
	ErrICSFetch = errors.New("calendar feed could not be fetched")
	ErrICSParse = errors.New("calendar feed is not valid iCalendar")
)

const (
	icsMaxFileSize  = 5 * 1024 * 1024
	icsFetchTimeout = 30 * time.Second
	icsMaxInstances = 1000 // per event
	endOfDay        = "23:59"
)

// FetchICSContent downloads a calendar feed; webcal:// is treated as https://.
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	resp, err := resty.New().
		SetTimeout(icsFetchTimeout).
		R().
		SetDoNotParseResponse(true).
		Get(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSFetch, err)
	}
	body := resp.RawBody()
	if resp.StatusCode() != 200 {
		body.Close()
		return nil, fmt.Errorf("%w: HTTP %d", ErrICSFetch, resp.StatusCode())
	}
	// cap the body so a hostile feed cannot exhaust memory
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(body, icsMaxFileSize),
		Closer: body,
	}, nil
}

// ParseICS converts the feed into blocks for coachID dated within [from, to].
func ParseICS(reader io.Reader, coachID string, from, to time.Time, loc *time.Location) ([]model.CoachUnavailability, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrICSParse, err)
	}

	from = availability.StartOfDay(from.In(loc))
	to = availability.StartOfDay(to.In(loc))

	var result []model.CoachUnavailability
	seen := make(map[string]bool)
	for _, evt := range cal.Events() {
		blocks, err := blocksForEvent(evt, coachID, from, to, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrICSParse, err)
		}
		for _, block := range blocks {
			key := blockKey(block)
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, block)
		}
	}
	return result, nil
}

// blocksForEvent expands one VEVENT into dated blocks.
func blocksForEvent(evt *ics.VEvent, coachID string, from, to time.Time, loc *time.Location) ([]model.CoachUnavailability, error) {
	if p := evt.GetProperty(ics.ComponentPropertyTransp); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return nil, nil
	}
	if p := evt.GetProperty(ics.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return nil, nil
	}

	reason := "Calendar"
	if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
		reason = strings.TrimSpace(p.Value)
	}
	if len(reason) > 200 {
		reason = reason[:200]
	}

	start, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil, nil
	}
	end, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		if allDay {
			end = start.AddDate(0, 0, 1)
		} else {
			end = start.Add(time.Hour)
		}
	}
	if !end.After(start) {
		return nil, nil
	}
	duration := end.Sub(start)

	starts, err := occurrences(evt, start, to, loc)
	if err != nil {
		return nil, err
	}

	var out []model.CoachUnavailability
	for _, occStart := range starts {
		occEnd := occStart.Add(duration)
		for _, b := range splitByDate(occStart.In(loc), occEnd.In(loc), allDay) {
			if b.Date.Before(from) || b.Date.After(to) {
				continue
			}
			b.CoachID = coachID
			b.Reason = reason
			b.Source = "ics"
			out = append(out, b)
		}
	}
	return out, nil
}

// splitByDate cuts [start, end) into per-date blocks.
func splitByDate(start, end time.Time, allDay bool) []model.CoachUnavailability {
	var out []model.CoachUnavailability
	for day := availability.StartOfDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		b := model.CoachUnavailability{Date: day}
		if !allDay {
			s, e := start, end
			if s.Before(day) {
				s = day
			}
			if e.After(next) {
				e = next
			}
			if !s.Equal(day) || !e.Equal(next) {
				startHM := s.Format("15:04")
				endHM := endOfDay
				if e.Before(next) {
					endHM = e.Format("15:04")
				}
				if startHM >= endHM {
					continue
				}
				b.StartTime = strPtr(startHM)
				b.EndTime = strPtr(endHM)
			}
		}
		out = append(out, b)
	}
	return out
}

// occurrences start instants of the event up to the window end. The RRULE
// is expanded in the zone DTSTART was written in, so a UTC series keeps its
// UTC time across daylight saving changes.
func occurrences(evt *ics.VEvent, start, until time.Time, loc *time.Location) ([]time.Time, error) {
	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		return []time.Time{start}, nil
	}

	opt, err := rrule.StrToROption(strings.ToUpper(strings.TrimSpace(rruleProp.Value)))
	if err != nil {
		return nil, fmt.Errorf("RRULE %q: %v", rruleProp.Value, err)
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("RRULE %q: %v", rruleProp.Value, err)
	}

	exDates := parseExDates(evt, loc)
	limit := until.AddDate(0, 0, 1)

	var out []time.Time
	next := rule.Iterator()
	for current, ok := next(); ok && current.Before(limit) && len(out) < icsMaxInstances; current, ok = next() {
		if exDates[current.In(loc).Format("20060102")] {
			continue
		}
		out = append(out, current)
	}
	return out, nil
}

// parseExDates dates (yyyymmdd in loc) excluded from recurrence
func parseExDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	exDates := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken != string(ics.ComponentPropertyExdate) {
			continue
		}
		for _, v := range strings.Split(prop.Value, ",") {
			t, err := time.Parse("20060102T150405Z", v)
			if err != nil {
				t, err = time.ParseInLocation("20060102T150405", v, loc)
				if err != nil {
					t, err = time.ParseInLocation("20060102", v, loc)
				}
			}
			if err == nil {
				exDates[t.In(loc).Format("20060102")] = true
			}
		}
	}
	return exDates
}

// parseICSDateTime reads a DTSTART/DTEND property in the zone it was written
// in: UTC, its TZID, or loc for floating times. Date-only values are midnight
// in loc and report allDay.
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse("20060102", val); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true, nil
	}

	t, err := time.Parse("20060102T150405", val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unparseable date %q", val)
	}
	zone := loc
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if tzLoc, err := time.LoadLocation(v[0]); err == nil {
				zone = tzLoc
			}
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone), false, nil
}

func blockKey(b model.CoachUnavailability) string {
	key := b.Date.Format(availability.DateLayout)
	if b.StartTime != nil && b.EndTime != nil {
		key += " " + *b.StartTime + "-" + *b.EndTime
	}
	return key
}
