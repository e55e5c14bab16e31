package service

import (
	"sort"
	"time"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

// Caller the authenticated user behind a request
type Caller struct {
	UserID  string
	Role    string
	CoachID string // set when the user has a coach profile
}

// IsAdmin reports whether the caller administers the gym.
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// canManageCoach admins manage every coach; a coach manages only their own schedule.
func (c Caller) canManageCoach(coachID string) error {
	if c.IsAdmin() || (c.CoachID != "" && c.CoachID == coachID) {
		return nil
	}
	return pkgerrors.ErrForbidden
}

// parseDate reads "YYYY-MM-DD" as midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(availability.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func strPtr(s string) *string { return &s }
