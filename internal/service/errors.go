package service

import (
	"errors"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
)

// ── shared scheduling errors ──

var (
	ErrCoachNotFound    = errors.New("coach not found")
	ErrCoachInactive    = errors.New("coach is inactive")
	ErrCoachUnavailable = errors.New("coach is unavailable")
	ErrSlotConflict     = errors.New("slot overlaps another slot of the coach")
	ErrInvalidTimeRange = errors.New("start time must be before end time")
	ErrInvalidDate      = errors.New("invalid date")
	ErrPastTime         = errors.New("time is in the past")
	ErrBusy             = errors.New("coach schedule is being changed, retry shortly")
)

// AvailabilityError a refused mutation carrying the resolver's reason.
// errors.Is(err, ErrCoachUnavailable) holds.
type AvailabilityError struct {
	CoachID string
	Reason  string
}

func (e *AvailabilityError) Error() string {
	return "coach is unavailable: " + e.Reason
}

// Is matches ErrCoachUnavailable.
func (e *AvailabilityError) Is(target error) bool {
	return target == ErrCoachUnavailable
}

// UnavailableReason extracts the resolver reason from err, if any.
func UnavailableReason(err error) (string, bool) {
	var ae *AvailabilityError
	if errors.As(err, &ae) {
		return ae.Reason, true
	}
	return "", false
}

// slotConflict maps the storage-level overlap onto ErrSlotConflict.
func slotConflict(err error) error {
	if errors.Is(err, repository.ErrSlotOverlap) {
		return ErrSlotConflict
	}
	return err
}
