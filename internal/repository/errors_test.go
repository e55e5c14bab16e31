package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateError_ExclusionViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "ex_bookable_slots_coach_overlap"})
	if !errors.Is(translateError(err), ErrSlotOverlap) {
		t.Errorf("expected ErrSlotOverlap, got %v", translateError(err))
	}
}

func TestTranslateError_UniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"}
	if !errors.Is(translateError(err), ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", translateError(err))
	}
}

func TestTranslateError_PassThrough(t *testing.T) {
	if translateError(nil) != nil {
		t.Error("nil must stay nil")
	}
	other := errors.New("boom")
	if translateError(other) != other {
		t.Error("unrelated errors must pass through unchanged")
	}
	fk := &pgconn.PgError{Code: "23503"}
	if translateError(fk) != error(fk) {
		t.Error("other PG codes must pass through unchanged")
	}
}
