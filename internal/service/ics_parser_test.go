package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

func TestSplitByDate_CrossesMidnight(t *testing.T) {
	loc := testNow.Location()
	start := time.Date(2026, 10, 30, 22, 0, 0, 0, loc)
	end := time.Date(2026, 11, 1, 2, 30, 0, 0, loc)

	blocks := splitByDate(start, end, false)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 dated blocks, got %d", len(blocks))
	}
	if *blocks[0].StartTime != "22:00" || *blocks[0].EndTime != endOfDay {
		t.Errorf("first day should run to the end of the day: %s-%s", *blocks[0].StartTime, *blocks[0].EndTime)
	}
	if !blocks[1].IsFullDay() {
		t.Error("middle day should be fully blocked")
	}
	if *blocks[2].StartTime != "00:00" || *blocks[2].EndTime != "02:30" {
		t.Errorf("last day should run from midnight: %s-%s", *blocks[2].StartTime, *blocks[2].EndTime)
	}
}

func TestSplitByDate_EndingAtMidnight(t *testing.T) {
	loc := testNow.Location()
	start := time.Date(2026, 10, 30, 20, 0, 0, 0, loc)
	end := time.Date(2026, 10, 31, 0, 0, 0, 0, loc)

	blocks := splitByDate(start, end, false)
	if len(blocks) != 1 {
		t.Fatalf("an event ending at midnight stays on one date, got %d", len(blocks))
	}
	if *blocks[0].StartTime != "20:00" || *blocks[0].EndTime != endOfDay {
		t.Errorf("unexpected block %s-%s", *blocks[0].StartTime, *blocks[0].EndTime)
	}
}

func TestSplitByDate_AllDay(t *testing.T) {
	loc := testNow.Location()
	start := time.Date(2026, 12, 24, 0, 0, 0, 0, loc)
	blocks := splitByDate(start, start.AddDate(0, 0, 3), true)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 days, got %d", len(blocks))
	}
	for _, b := range blocks {
		if !b.IsFullDay() {
			t.Errorf("all-day events block whole dates: %+v", b)
		}
	}
}

func parseFeed(t *testing.T, body string) []model.CoachUnavailability {
	t.Helper()
	loc := testNow.Location()
	from := time.Date(2026, 10, 15, 0, 0, 0, 0, loc)
	blocks, err := ParseICS(strings.NewReader(strings.ReplaceAll(body, "\n", "\r\n")), "coach-1", from, from.AddDate(0, 0, 180), loc)
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	return blocks
}

func recurringFeed(rule string) string {
	return `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//ringside//test//EN
BEGIN:VEVENT
UID:rehab@test
SUMMARY:Rehab
DTSTART:20261019T090000Z
DTEND:20261019T100000Z
RRULE:` + rule + `
END:VEVENT
END:VCALENDAR
`
}

func TestParseICS_WeeklyByDay(t *testing.T) {
	blocks := parseFeed(t, recurringFeed("FREQ=WEEKLY;BYDAY=MO,WE;COUNT=4"))

	var got []string
	for _, b := range blocks {
		got = append(got, blockKey(b))
	}
	// 09:00Z is 10:00 in London until the clocks change on 25 Oct
	want := []string{
		"2026-10-19 10:00-11:00",
		"2026-10-21 10:00-11:00",
		"2026-10-26 09:00-10:00",
		"2026-10-28 09:00-10:00",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseICS_MonthlyByMonthDay(t *testing.T) {
	blocks := parseFeed(t, recurringFeed("FREQ=MONTHLY;BYMONTHDAY=1,15;UNTIL=20261201T000000Z"))

	dates := make(map[string]bool)
	for _, b := range blocks {
		dates[b.Date.Format("2006-01-02")] = true
	}
	for _, d := range []string{"2026-11-01", "2026-11-15"} {
		if !dates[d] {
			t.Errorf("missing %s in %v", d, dates)
		}
	}
	if len(blocks) != 2 {
		t.Errorf("expected 2 blocks before UNTIL, got %d", len(blocks))
	}
}

func TestParseICS_LowercaseRule(t *testing.T) {
	blocks := parseFeed(t, recurringFeed("freq=daily;count=3"))
	if len(blocks) != 3 {
		t.Errorf("expected 3 daily blocks, got %d", len(blocks))
	}
}

func TestParseICS_UnreadableRuleFailsImport(t *testing.T) {
	loc := testNow.Location()
	body := strings.ReplaceAll(recurringFeed("FREQ=FORTNIGHTLY;COUNT=2"), "\n", "\r\n")
	_, err := ParseICS(strings.NewReader(body), "coach-1", testNow, testNow.AddDate(0, 0, 180), loc)
	if !errors.Is(err, ErrICSParse) {
		t.Errorf("expected ErrICSParse, got %v", err)
	}
}
