package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
)

var ErrExportGenerateFail = errors.New("failed to generate spreadsheet")

// exportUpcomingRange appointments listed on the upcoming sheet
const exportUpcomingRange = 28 * 24 * time.Hour

// ExportService spreadsheet exports. The workbook is returned as a buffer;
// the handler sets the download headers.
type ExportService interface {
	// ExportCoachTimetable weekly timetable plus upcoming appointments of a coach.
	ExportCoachTimetable(ctx context.Context, coachID string, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// timetableRow one line of the weekly sheet
type timetableRow struct {
	day    model.WeekDay
	start  int
	kind   string
	time   string
	detail string
}

// ═══════════════════════════════════════════════════════════
// ExportCoachTimetable
// ═══════════════════════════════════════════════════════════
//
// Sheet "Weekly":   Day | Type | Time | Detail, Monday first, by start time
// Sheet "Upcoming": Date | Time | Service | Member | Status for the next four weeks

func (s *exportService) ExportCoachTimetable(ctx context.Context, coachID string, caller Caller) (*bytes.Buffer, string, error) {
	if err := caller.canManageCoach(coachID); err != nil {
		return nil, "", err
	}
	coach, err := lookupCoach(ctx, s.repo, coachID)
	if err != nil {
		return nil, "", err
	}

	windows, err := s.repo.Availability.ListByCoach(ctx, coachID)
	if err != nil {
		s.logger.Error("list availability for export", zap.Error(err))
		return nil, "", err
	}
	classes, err := s.repo.Class.List(ctx, repository.ClassFilter{CoachID: coachID})
	if err != nil {
		s.logger.Error("list classes for export", zap.Error(err))
		return nil, "", err
	}
	from := s.now().In(s.loc)
	appointments, err := s.repo.Appointment.ListActiveByCoach(ctx, coachID, from, from.Add(exportUpcomingRange))
	if err != nil {
		s.logger.Error("list appointments for export", zap.Error(err))
		return nil, "", err
	}

	rows := weeklyRows(windows, classes, coachID)

	f := excelize.NewFile()
	defer f.Close()

	weekly := "Weekly"
	idx, _ := f.NewSheet(weekly)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C00000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetColWidth(weekly, "A", "A", 12)
	f.SetColWidth(weekly, "B", "B", 14)
	f.SetColWidth(weekly, "C", "C", 16)
	f.SetColWidth(weekly, "D", "D", 36)

	f.SetCellValue(weekly, "A1", fmt.Sprintf("%s: weekly timetable", coach.Name))
	f.MergeCell(weekly, "A1", "D1")
	f.SetCellStyle(weekly, "A1", "A1", headerStyle)
	for i, h := range []string{"Day", "Type", "Time", "Detail"} {
		f.SetCellValue(weekly, cell(colName(i), 2), h)
	}
	f.SetCellStyle(weekly, "A2", "D2", headerStyle)

	row := 3
	for _, r := range rows {
		f.SetCellValue(weekly, cell("A", row), string(r.day))
		f.SetCellValue(weekly, cell("B", row), r.kind)
		f.SetCellValue(weekly, cell("C", row), r.time)
		f.SetCellValue(weekly, cell("D", row), r.detail)
		row++
	}

	upcoming := "Upcoming"
	f.NewSheet(upcoming)
	f.SetColWidth(upcoming, "A", "A", 14)
	f.SetColWidth(upcoming, "B", "B", 16)
	f.SetColWidth(upcoming, "C", "C", 10)
	f.SetColWidth(upcoming, "D", "D", 24)
	f.SetColWidth(upcoming, "E", "E", 18)
	for i, h := range []string{"Date", "Time", "Service", "Member", "Status"} {
		f.SetCellValue(upcoming, cell(colName(i), 1), h)
	}
	f.SetCellStyle(upcoming, "A1", "E1", headerStyle)

	row = 2
	for _, a := range appointments {
		start, end := a.StartsAt.In(s.loc), a.EndsAt.In(s.loc)
		member := "-"
		if a.Member != nil {
			member = a.Member.Name
		}
		f.SetCellValue(upcoming, cell("A", row), start.Format(availability.DateLayout))
		f.SetCellValue(upcoming, cell("B", row), start.Format("15:04")+" – "+end.Format("15:04"))
		f.SetCellValue(upcoming, cell("C", row), string(a.ServiceType))
		f.SetCellValue(upcoming, cell("D", row), member)
		f.SetCellValue(upcoming, cell("E", row), string(a.Status))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write spreadsheet", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timetable_%s_%s.xlsx", coach.Name, from.Format(availability.DateLayout))
	return buf, filename, nil
}

// weeklyRows merges availability windows and classes of the coach,
// Monday first then by start time.
func weeklyRows(windows []model.CoachAvailability, classes []model.GymClass, coachID string) []timetableRow {
	var rows []timetableRow
	for _, w := range windows {
		start, err := availability.TimeToMinutes(w.StartTime)
		if err != nil {
			continue
		}
		rows = append(rows, timetableRow{
			day:    w.DayOfWeek,
			start:  start,
			kind:   "Available",
			time:   w.StartTime + " – " + w.EndTime,
			detail: "Private sessions bookable",
		})
	}
	for _, c := range classes {
		if !c.AssignedTo(coachID) {
			continue
		}
		iv, ok := availability.ParseClassTimeRange(c.Time)
		if !ok {
			continue
		}
		detail := c.Name
		if c.CoachID != coachID {
			detail += " (assisting)"
		}
		rows = append(rows, timetableRow{
			day:    c.DayOfWeek,
			start:  iv.StartMinutes,
			kind:   string(c.ServiceType),
			time:   c.Time,
			detail: detail,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].day != rows[j].day {
			return rows[i].day.ISO() < rows[j].day.ISO()
		}
		return rows[i].start < rows[j].start
	})
	return rows
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
