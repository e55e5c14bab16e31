package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Storage-level constraint violations surfaced to services.
var (
	// ErrSlotOverlap a live slot of the same coach already covers part of the
	// range (exclusion constraint ex_bookable_slots_coach_overlap).
	ErrSlotOverlap = errors.New("slot overlaps another slot of the coach")
	ErrDuplicate   = errors.New("duplicate record")
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// translateError maps PostgreSQL constraint errors onto sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return fmt.Errorf("%w (%s)", ErrSlotOverlap, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("%w (%s)", ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return err
}
