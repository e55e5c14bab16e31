package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

func setupTestAvailabilityServices() (AvailabilityService, UnavailabilityService, *testEnv) {
	env := newTestEnv()
	env.addCoach("coach-1", "Mick", 4500)
	env.addCoach("coach-2", "Sally", 5000)
	avail := NewAvailabilityService(env.repo, env.locker, zap.NewNop())
	unavail := NewUnavailabilityService(env.repo, env.locker, env.loc, zap.NewNop()).(*unavailabilityService)
	unavail.now = env.now
	return avail, unavail, env
}

// ── recurring windows ──

func TestAvailabilityService_Create(t *testing.T) {
	svc, _, env := setupTestAvailabilityServices()

	resp, err := svc.Create(context.Background(), "coach-1", &dto.AvailabilityRequest{
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "17:00",
	}, coachCaller("coach-1"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if resp.DayOfWeek != "Monday" {
		t.Errorf("day should be canonical, got %s", resp.DayOfWeek)
	}
	if len(env.windows.windows) != 1 {
		t.Errorf("expected one stored window, got %d", len(env.windows.windows))
	}
}

func TestAvailabilityService_Create_InvalidRange(t *testing.T) {
	svc, _, _ := setupTestAvailabilityServices()

	for _, tc := range [][2]string{{"17:00", "09:00"}, {"09:00", "09:00"}, {"9am", "17:00"}} {
		_, err := svc.Create(context.Background(), "coach-1", &dto.AvailabilityRequest{
			DayOfWeek: "Monday", StartTime: tc[0], EndTime: tc[1],
		}, adminCaller)
		if !errors.Is(err, ErrInvalidTimeRange) {
			t.Errorf("%s-%s: expected ErrInvalidTimeRange, got %v", tc[0], tc[1], err)
		}
	}
}

func TestAvailabilityService_Create_OtherCoachForbidden(t *testing.T) {
	svc, _, _ := setupTestAvailabilityServices()

	_, err := svc.Create(context.Background(), "coach-2", &dto.AvailabilityRequest{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "17:00",
	}, coachCaller("coach-1"))
	if !errors.Is(err, pkgerrors.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestAvailabilityService_Create_UnknownCoach(t *testing.T) {
	svc, _, _ := setupTestAvailabilityServices()

	_, err := svc.Create(context.Background(), "ghost", &dto.AvailabilityRequest{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "17:00",
	}, adminCaller)
	if !errors.Is(err, ErrCoachNotFound) {
		t.Errorf("expected ErrCoachNotFound, got %v", err)
	}
}

func TestAvailabilityService_UpdateKeepsID(t *testing.T) {
	svc, _, _ := setupTestAvailabilityServices()
	ctx := context.Background()
	created, _ := svc.Create(ctx, "coach-1", &dto.AvailabilityRequest{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00",
	}, adminCaller)

	updated, err := svc.Update(ctx, created.ID, &dto.UpdateAvailabilityRequest{
		AvailabilityRequest: dto.AvailabilityRequest{DayOfWeek: "Tuesday", StartTime: "10:00", EndTime: "14:00"},
		Version:             created.Version,
	}, adminCaller)
	if err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("update must keep the id: %s != %s", updated.ID, created.ID)
	}
	if updated.DayOfWeek != "Tuesday" || updated.StartTime != "10:00" || updated.Version != created.Version+1 {
		t.Errorf("unexpected result %+v", updated)
	}

	// stale version
	_, err = svc.Update(ctx, created.ID, &dto.UpdateAvailabilityRequest{
		AvailabilityRequest: dto.AvailabilityRequest{DayOfWeek: "Tuesday", StartTime: "10:00", EndTime: "15:00"},
		Version:             created.Version,
	}, adminCaller)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("expected ErrOptimisticLock, got %v", err)
	}
}

func TestAvailabilityService_Delete(t *testing.T) {
	svc, _, env := setupTestAvailabilityServices()
	ctx := context.Background()
	created, _ := svc.Create(ctx, "coach-1", &dto.AvailabilityRequest{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00",
	}, adminCaller)

	if err := svc.Delete(ctx, created.ID, coachCaller("coach-2")); !errors.Is(err, pkgerrors.ErrForbidden) {
		t.Errorf("another coach must not delete, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID, coachCaller("coach-1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(env.windows.windows) != 0 {
		t.Error("window should be gone")
	}
	if err := svc.Delete(ctx, created.ID, adminCaller); !errors.Is(err, ErrAvailabilityNotFound) {
		t.Errorf("expected ErrAvailabilityNotFound, got %v", err)
	}
}

// ── one-off blocks ──

func TestUnavailabilityService_Create(t *testing.T) {
	_, svc, _ := setupTestAvailabilityServices()
	ctx := context.Background()

	full, err := svc.Create(ctx, "coach-1", &dto.UnavailabilityRequest{Date: "2026-10-19", Reason: "Fight night"}, adminCaller)
	if err != nil {
		t.Fatalf("full-day block: %v", err)
	}
	if !full.FullDay || full.Source != "manual" {
		t.Errorf("unexpected block %+v", full)
	}

	timed, err := svc.Create(ctx, "coach-1", &dto.UnavailabilityRequest{
		Date: "2026-10-20", StartTime: strPtr("12:00"), EndTime: strPtr("13:00"),
	}, adminCaller)
	if err != nil {
		t.Fatalf("timed block: %v", err)
	}
	if timed.FullDay || *timed.StartTime != "12:00" {
		t.Errorf("unexpected block %+v", timed)
	}
}

func TestUnavailabilityService_Create_Invalid(t *testing.T) {
	_, svc, _ := setupTestAvailabilityServices()
	ctx := context.Background()

	_, err := svc.Create(ctx, "coach-1", &dto.UnavailabilityRequest{Date: "2026-10-19", StartTime: strPtr("12:00")}, adminCaller)
	if !errors.Is(err, ErrPartialTimeRange) {
		t.Errorf("expected ErrPartialTimeRange, got %v", err)
	}
	_, err = svc.Create(ctx, "coach-1", &dto.UnavailabilityRequest{
		Date: "2026-10-19", StartTime: strPtr("13:00"), EndTime: strPtr("12:00"),
	}, adminCaller)
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}
	_, err = svc.Create(ctx, "coach-1", &dto.UnavailabilityRequest{Date: "19/10/2026"}, adminCaller)
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestUnavailabilityService_ListRange(t *testing.T) {
	_, svc, env := setupTestAvailabilityServices()
	env.addBlock("coach-1", env.at(2026, 10, 19, 0, 0), nil, nil)
	env.addBlock("coach-1", env.at(2026, 11, 2, 0, 0), nil, nil)
	env.addBlock("coach-2", env.at(2026, 10, 19, 0, 0), nil, nil)

	list, err := svc.List(context.Background(), "coach-1", &dto.UnavailabilityListRequest{From: "2026-10-01", To: "2026-10-31"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Date != "2026-10-19" {
		t.Errorf("expected only the October block of coach-1, got %+v", list)
	}
}

// ── ICS import ──

const testFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//ringside//test//EN
BEGIN:VEVENT
UID:holiday@test
SUMMARY:Holiday
DTSTART;VALUE=DATE:20261020
DTEND;VALUE=DATE:20261022
END:VEVENT
BEGIN:VEVENT
UID:dentist@test
SUMMARY:Dentist
DTSTART;TZID=Europe/London:20261019T120000
DTEND;TZID=Europe/London:20261019T133000
END:VEVENT
BEGIN:VEVENT
UID:physio@test
SUMMARY:Physio
DTSTART:20261021T170000Z
DTEND:20261021T180000Z
RRULE:FREQ=WEEKLY;COUNT=3
EXDATE:20261028T170000Z
END:VEVENT
BEGIN:VEVENT
UID:free@test
SUMMARY:Free time
TRANSP:TRANSPARENT
DTSTART:20261023T090000Z
DTEND:20261023T100000Z
END:VEVENT
BEGIN:VEVENT
UID:old@test
SUMMARY:Last year
DTSTART:20250101T090000Z
DTEND:20250101T100000Z
END:VEVENT
END:VCALENDAR
`

func icsReader() *strings.Reader {
	return strings.NewReader(strings.ReplaceAll(testFeed, "\n", "\r\n"))
}

func TestUnavailabilityService_ImportICS(t *testing.T) {
	_, svc, env := setupTestAvailabilityServices()
	ctx := context.Background()

	resp, err := svc.ImportICS(ctx, "coach-1", icsReader(), coachCaller("coach-1"))
	if err != nil {
		t.Fatalf("ImportICS: %v", err)
	}
	// 2 holiday dates, the dentist, physio on 21 Oct and 4 Nov (28 Oct excluded)
	if resp.Imported != 5 || resp.Skipped != 0 {
		t.Fatalf("expected 5 imported, got %+v", resp)
	}

	got := make(map[string]bool)
	for _, b := range env.blocks.blocks {
		if b.Source != "ics" {
			t.Errorf("imported block should be tagged ics: %+v", b)
		}
		got[blockKey(*b)] = true
	}
	for _, want := range []string{
		"2026-10-20",
		"2026-10-21",
		"2026-10-19 12:00-13:30",
		"2026-10-21 18:00-19:00", // 17:00Z during British Summer Time
		"2026-11-04 17:00-18:00",
	} {
		if !got[want] {
			t.Errorf("missing block %s; have %v", want, got)
		}
	}

	again, err := svc.ImportICS(ctx, "coach-1", icsReader(), coachCaller("coach-1"))
	if err != nil {
		t.Fatalf("second ImportICS: %v", err)
	}
	if again.Imported != 0 || again.Skipped != 5 {
		t.Errorf("re-import should skip everything, got %+v", again)
	}
}

func TestUnavailabilityService_ImportedBlockRefusesClass(t *testing.T) {
	_, svc, env := setupTestAvailabilityServices()
	if _, err := svc.ImportICS(context.Background(), "coach-1", icsReader(), adminCaller); err != nil {
		t.Fatalf("ImportICS: %v", err)
	}
	env.addWindow("coach-1", model.Monday, "09:00", "17:00")

	blocks, _ := env.blocks.ListByCoach(context.Background(), "coach-1", env.at(2026, 10, 19, 0, 0), env.at(2026, 10, 19, 0, 0))
	date := env.at(2026, 10, 19, 0, 0)
	res := availability.IsCoachAvailable(availability.CheckParams{
		CoachID:        "coach-1",
		Day:            model.Monday,
		Time:           "13:00 – 14:00",
		Availability:   []model.CoachAvailability{{CoachID: "coach-1", DayOfWeek: model.Monday, StartTime: "09:00", EndTime: "17:00"}},
		Unavailability: blocks,
		CheckDate:      &date,
	})
	if res.IsAvailable || !strings.Contains(res.Reason, "Dentist") {
		t.Errorf("imported dentist block should refuse 13:00, got %+v", res)
	}
}

func TestUnavailabilityService_ImportICS_Garbage(t *testing.T) {
	_, svc, _ := setupTestAvailabilityServices()
	_, err := svc.ImportICS(context.Background(), "coach-1", strings.NewReader("not a calendar"), adminCaller)
	if err == nil {
		t.Error("expected a parse error")
	}
}
