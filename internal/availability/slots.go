package availability

import (
	"sort"
	"strings"
	"time"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// SlotLengthMinutes length of a slot synthesized from recurring availability.
const SlotLengthMinutes = 60

const syntheticPrefix = "recurring_"

// BookableSlot a concrete dated opportunity to book, either persisted or
// synthesized for display.
type BookableSlot struct {
	ID          string            `json:"id"`
	CoachID     string            `json:"coach_id"`
	ServiceType model.ServiceType `json:"service_type"`
	StartsAt    time.Time         `json:"starts_at"`
	EndsAt      time.Time         `json:"ends_at"`
	Capacity    int               `json:"capacity"`
	PriceCents  int64             `json:"price_cents"`
	IsBooked    bool              `json:"is_booked"`
	IsRecurring bool              `json:"is_recurring"` // synthesized, not persisted
}

// MonthParams snapshot for one month projection. Now is explicit so the
// projection stays deterministic.
type MonthParams struct {
	Coach                 model.Coach
	ServiceType           model.ServiceType
	MonthAnchor           time.Time // any instant inside the month, in the gym's location
	PersistedSlots        []model.BookableSlot
	RecurringAvailability []model.CoachAvailability
	Unavailability        []model.CoachUnavailability
	Classes               []model.GymClass
	Appointments          []model.Appointment
	Now                   time.Time
}

// GenerateBookableSlotsForMonth merges the coach's persisted slots of the
// month with hour-long slots synthesized from recurring availability
// (private sessions only), sorted by start time.
func GenerateBookableSlotsForMonth(p MonthParams) []BookableSlot {
	loc := p.MonthAnchor.Location()
	monthStart := time.Date(p.MonthAnchor.Year(), p.MonthAnchor.Month(), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)
	coachID := p.Coach.CoachID

	booked := bookedSlotIDs(p.Appointments)

	var coachSlots []model.BookableSlot
	for _, s := range p.PersistedSlots {
		if s.CoachID == coachID {
			coachSlots = append(coachSlots, s)
		}
	}

	result := make([]BookableSlot, 0, len(coachSlots))
	for _, s := range coachSlots {
		start := s.StartsAt.In(loc)
		if s.ServiceType != p.ServiceType {
			continue
		}
		if start.Before(monthStart) || !start.Before(monthEnd) || start.Before(p.Now) {
			continue
		}
		result = append(result, BookableSlot{
			ID:          s.SlotID,
			CoachID:     s.CoachID,
			ServiceType: s.ServiceType,
			StartsAt:    start,
			EndsAt:      s.EndsAt.In(loc),
			Capacity:    s.Capacity,
			PriceCents:  s.PriceCents,
			IsBooked:    booked[s.SlotID],
		})
	}

	if p.ServiceType == model.ServicePrivate {
		result = append(result, synthesizeSlots(p, monthStart, monthEnd, coachSlots)...)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].StartsAt.Before(result[j].StartsAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// synthesizeSlots walks every recurring window of the coach across the month
// in whole-hour steps. A trailing partial hour is never offered.
func synthesizeSlots(p MonthParams, monthStart, monthEnd time.Time, persisted []model.BookableSlot) []BookableSlot {
	coachID := p.Coach.CoachID

	windows := make(map[model.WeekDay][]Interval)
	for _, w := range p.RecurringAvailability {
		if w.CoachID != coachID {
			continue
		}
		iv, ok := ParseTimeRange(w.StartTime, w.EndTime)
		if !ok {
			continue
		}
		windows[w.DayOfWeek] = append(windows[w.DayOfWeek], iv)
	}
	if len(windows) == 0 {
		return nil
	}

	var out []BookableSlot
	seen := make(map[string]bool) // overlapping windows yield the same hour twice
	for day := monthStart; day.Before(monthEnd); day = day.AddDate(0, 0, 1) {
		weekDay := model.WeekDayOf(day)
		for _, w := range windows[weekDay] {
			for start := w.StartMinutes; start+SlotLengthMinutes <= w.EndMinutes; start += SlotLengthMinutes {
				candidate := Interval{StartMinutes: start, EndMinutes: start + SlotLengthMinutes}
				startsAt := AtMinutes(day, candidate.StartMinutes)
				endsAt := AtMinutes(day, candidate.EndMinutes)

				if startsAt.Before(p.Now) {
					continue
				}
				if _, blocked := BlockingUnavailability(coachID, day, candidate, p.Unavailability); blocked {
					continue
				}
				if _, conflict := ConflictingClass(coachID, weekDay, candidate, p.Classes, ""); conflict {
					continue
				}
				if collidesWithPersisted(startsAt, endsAt, persisted) {
					continue
				}

				id := SyntheticSlotID(coachID, startsAt)
				if seen[id] {
					continue
				}
				seen[id] = true

				out = append(out, BookableSlot{
					ID:          id,
					CoachID:     coachID,
					ServiceType: model.ServicePrivate,
					StartsAt:    startsAt,
					EndsAt:      endsAt,
					Capacity:    1,
					PriceCents:  p.Coach.PrivateRateCents,
					IsRecurring: true,
				})
			}
		}
	}
	return out
}

// collidesWithPersisted any persisted slot of the coach sharing time with the
// candidate suppresses it, which covers the exact same-start duplicate.
func collidesWithPersisted(start, end time.Time, persisted []model.BookableSlot) bool {
	for _, s := range persisted {
		if start.Before(s.EndsAt) && end.After(s.StartsAt) {
			return true
		}
	}
	return false
}

func bookedSlotIDs(appointments []model.Appointment) map[string]bool {
	booked := make(map[string]bool, len(appointments))
	for _, a := range appointments {
		if a.IsActive() {
			booked[a.SlotID] = true
		}
	}
	return booked
}

// SyntheticSlotID stable id of a synthesized slot, derived from the coach and
// the UTC start instant.
func SyntheticSlotID(coachID string, start time.Time) string {
	return syntheticPrefix + coachID + "_" + start.UTC().Format(time.RFC3339)
}

// IsSyntheticSlotID reports whether id was produced by SyntheticSlotID.
func IsSyntheticSlotID(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

// ParseSyntheticSlotID recovers the coach id and start instant.
func ParseSyntheticSlotID(id string) (coachID string, start time.Time, ok bool) {
	if !IsSyntheticSlotID(id) {
		return "", time.Time{}, false
	}
	rest := strings.TrimPrefix(id, syntheticPrefix)
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 || idx == len(rest)-1 {
		return "", time.Time{}, false
	}
	start, err := time.Parse(time.RFC3339, rest[idx+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return rest[:idx], start, true
}
