package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

var (
	ErrClassNotFound = errors.New("class not found")
	ErrSameCoach     = errors.New("class is already run by this coach")
)

// ClassService weekly classes. Every change to who runs a class, or when,
// is validated against the availability of each assigned coach while their
// schedules are locked.
type ClassService interface {
	Create(ctx context.Context, req *dto.CreateClassRequest, caller Caller) (*dto.ClassResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassRequest, caller Caller) (*dto.ClassResponse, error)
	Transfer(ctx context.Context, id string, req *dto.TransferClassRequest, caller Caller) (*dto.ClassResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
	List(ctx context.Context, req *dto.ClassListRequest) ([]dto.ClassResponse, error)
	CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityCheckResponse, error)
	ListCoverLogs(ctx context.Context, id string) ([]dto.CoverLogResponse, error)
}

type classService struct {
	repo   *repository.Repository
	locker CoachLocker
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewClassService creates a ClassService. Check dates are read in loc.
func NewClassService(repo *repository.Repository, locker CoachLocker, loc *time.Location, logger *zap.Logger) ClassService {
	return &classService{repo: repo, locker: locker, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classService) Create(ctx context.Context, req *dto.CreateClassRequest, caller Caller) (*dto.ClassResponse, error) {
	if !caller.IsAdmin() {
		return nil, pkgerrors.ErrForbidden
	}
	day, ok := model.ParseWeekDay(req.DayOfWeek)
	if !ok {
		return nil, fmt.Errorf("invalid day_of_week %q", req.DayOfWeek)
	}
	serviceType := model.ServiceClass
	if req.ServiceType != "" {
		serviceType = model.ServiceType(req.ServiceType)
	}

	class := &model.GymClass{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CoachID:     req.CoachID,
		DayOfWeek:   day,
		Time:        normalizeClassTime(req.Time),
		ServiceType: serviceType,
		Capacity:    req.Capacity,
		PriceCents:  req.PriceCents,
	}
	class.CoachIDs = extraCoaches(req.CoachID, req.CoachIDs)
	class.CreatedBy = &caller.UserID

	unlock, err := lockCoaches(ctx, s.locker, class.AssignedCoachIDs())
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.validateAssignment(ctx, class, req.CheckDate, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Class.Create(ctx, class); err != nil {
		s.logger.Error("create class", zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, class)
}

// ────────────────────── Update ──────────────────────

func (s *classService) Update(ctx context.Context, id string, req *dto.UpdateClassRequest, caller Caller) (*dto.ClassResponse, error) {
	if !caller.IsAdmin() {
		return nil, pkgerrors.ErrForbidden
	}
	class, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := class.AssignedCoachIDs()
	before := scheduleKey(class)

	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		class.Description = *req.Description
	}
	if req.CoachID != nil {
		class.CoachID = *req.CoachID
	}
	if req.CoachIDs != nil {
		class.CoachIDs = extraCoaches(class.CoachID, *req.CoachIDs)
	} else {
		class.CoachIDs = extraCoaches(class.CoachID, class.CoachIDs)
	}
	if req.DayOfWeek != nil {
		day, ok := model.ParseWeekDay(*req.DayOfWeek)
		if !ok {
			return nil, fmt.Errorf("invalid day_of_week %q", *req.DayOfWeek)
		}
		class.DayOfWeek = day
	}
	if req.Time != nil {
		class.Time = normalizeClassTime(*req.Time)
	}
	if req.ServiceType != nil {
		class.ServiceType = model.ServiceType(*req.ServiceType)
	}
	if req.Capacity != nil {
		class.Capacity = *req.Capacity
	}
	if req.PriceCents != nil {
		class.PriceCents = *req.PriceCents
	}
	class.Version = req.Version
	class.UpdatedBy = &caller.UserID
	class.Coach = nil

	unlock, err := lockCoaches(ctx, s.locker, append(previous, class.AssignedCoachIDs()...))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// cosmetic edits do not re-validate the schedule
	if scheduleKey(class) != before || req.CheckDate != "" {
		if err := s.validateAssignment(ctx, class, req.CheckDate, class.ClassID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.logger.Error("update class", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, class)
}

// ────────────────────── Transfer ──────────────────────

// Transfer hands the class to a covering coach and records the change.
func (s *classService) Transfer(ctx context.Context, id string, req *dto.TransferClassRequest, caller Caller) (*dto.ClassResponse, error) {
	if !caller.IsAdmin() {
		return nil, pkgerrors.ErrForbidden
	}
	class, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	original := class.CoachID
	if original == req.NewCoachID {
		return nil, ErrSameCoach
	}

	unlock, err := lockCoaches(ctx, s.locker, []string{original, req.NewCoachID})
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.checkCoach(ctx, req.NewCoachID, class, req.CheckDate, class.ClassID); err != nil {
		return nil, err
	}

	class.CoachID = req.NewCoachID
	class.CoachIDs = extraCoaches(req.NewCoachID, class.CoachIDs)
	class.UpdatedBy = &caller.UserID
	class.Coach = nil

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Class.Update(ctx, class); err != nil {
			return err
		}
		return tx.CoverLog.Create(ctx, &model.ClassCoverLog{
			ClassID:         class.ClassID,
			OriginalCoachID: original,
			NewCoachID:      req.NewCoachID,
			Reason:          req.Reason,
			OperatorID:      caller.UserID,
		})
	})
	if err != nil {
		s.logger.Error("transfer class", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("class transferred",
		zap.String("class_id", id),
		zap.String("from", original),
		zap.String("to", req.NewCoachID),
	)
	return s.reload(ctx, class)
}

// ────────────────────── Delete ──────────────────────

func (s *classService) Delete(ctx context.Context, id string, caller Caller) error {
	if !caller.IsAdmin() {
		return pkgerrors.ErrForbidden
	}
	class, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	unlock, err := lockCoaches(ctx, s.locker, class.AssignedCoachIDs())
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.Class.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete class", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *classService) List(ctx context.Context, req *dto.ClassListRequest) ([]dto.ClassResponse, error) {
	filter := repository.ClassFilter{CoachID: req.CoachID}
	if req.DayOfWeek != "" {
		day, ok := model.ParseWeekDay(req.DayOfWeek)
		if !ok {
			return nil, fmt.Errorf("invalid day_of_week %q", req.DayOfWeek)
		}
		filter.Day = day
	}
	classes, err := s.repo.Class.List(ctx, filter)
	if err != nil {
		s.logger.Error("list classes", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		result = append(result, *toClassResponse(&classes[i]))
	}
	return result, nil
}

// ListCoverLogs transfers of the class, newest first.
func (s *classService) ListCoverLogs(ctx context.Context, id string) ([]dto.CoverLogResponse, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.CoverLog.ListByClass(ctx, id)
	if err != nil {
		s.logger.Error("list cover logs", zap.String("class_id", id), zap.Error(err))
		return nil, err
	}
	result := make([]dto.CoverLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.CoverLogResponse{
			ID:              l.CoverLogID,
			OriginalCoachID: l.OriginalCoachID,
			NewCoachID:      l.NewCoachID,
			Reason:          l.Reason,
			OperatorID:      l.OperatorID,
			CreatedAt:       l.CreatedAt.In(s.loc).Format(time.RFC3339),
		})
	}
	return result, nil
}

// ────────────────────── CheckAvailability ──────────────────────

// CheckAvailability dry-runs the decision a class mutation would make.
func (s *classService) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityCheckResponse, error) {
	day, ok := model.ParseWeekDay(req.DayOfWeek)
	if !ok {
		return nil, fmt.Errorf("invalid day_of_week %q", req.DayOfWeek)
	}
	if _, err := lookupCoach(ctx, s.repo, req.CoachID); err != nil {
		return nil, err
	}
	checkDate, err := s.resolveCheckDate(req.CheckDate, day)
	if err != nil {
		return nil, err
	}

	res, err := s.evaluate(ctx, req.CoachID, day, req.Time, checkDate, req.IgnoreClassID)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityCheckResponse{
		IsAvailable: res.IsAvailable,
		Reason:      res.Reason,
		CheckDate:   checkDate.Format(availability.DateLayout),
	}, nil
}

// ── helpers ──

// validateAssignment checks every coach assigned to the class.
func (s *classService) validateAssignment(ctx context.Context, class *model.GymClass, rawCheckDate, ignoreClassID string) error {
	for _, coachID := range class.AssignedCoachIDs() {
		if err := s.checkCoach(ctx, coachID, class, rawCheckDate, ignoreClassID); err != nil {
			return err
		}
	}
	return nil
}

// checkCoach refuses an inactive coach or one the resolver rejects.
func (s *classService) checkCoach(ctx context.Context, coachID string, class *model.GymClass, rawCheckDate, ignoreClassID string) error {
	coach, err := lookupCoach(ctx, s.repo, coachID)
	if err != nil {
		return err
	}
	if !coach.IsActive {
		return ErrCoachInactive
	}
	checkDate, err := s.resolveCheckDate(rawCheckDate, class.DayOfWeek)
	if err != nil {
		return err
	}

	res, err := s.evaluate(ctx, coachID, class.DayOfWeek, class.Time, checkDate, ignoreClassID)
	if err != nil {
		return err
	}
	if !res.IsAvailable {
		s.logger.Info("class refused",
			zap.String("coach_id", coachID),
			zap.String("day", string(class.DayOfWeek)),
			zap.String("time", class.Time),
			zap.String("reason", res.Reason),
		)
		return &AvailabilityError{CoachID: coachID, Reason: res.Reason}
	}
	return nil
}

// evaluate snapshots the coach's schedule and runs the resolver on it.
func (s *classService) evaluate(ctx context.Context, coachID string, day model.WeekDay, timeRange string, checkDate time.Time, ignoreClassID string) (availability.Result, error) {
	classes, err := s.repo.Class.List(ctx, repository.ClassFilter{Day: day, CoachID: coachID})
	if err != nil {
		return availability.Result{}, err
	}
	windows, err := s.repo.Availability.ListByCoach(ctx, coachID)
	if err != nil {
		return availability.Result{}, err
	}
	blocks, err := s.repo.Unavailability.ListByCoach(ctx, coachID, checkDate, checkDate)
	if err != nil {
		return availability.Result{}, err
	}

	return availability.IsCoachAvailable(availability.CheckParams{
		CoachID:        coachID,
		Day:            day,
		Time:           timeRange,
		Classes:        classes,
		Availability:   windows,
		Unavailability: blocks,
		CheckDate:      &checkDate,
		IgnoreClassID:  ignoreClassID,
	}), nil
}

// resolveCheckDate uses the requested date, or the next occurrence of day
// so that blocks on the upcoming session are honoured. A requested date must
// fall on day.
func (s *classService) resolveCheckDate(raw string, day model.WeekDay) (time.Time, error) {
	if raw != "" {
		date, err := parseDate(raw, s.loc)
		if err != nil {
			return time.Time{}, err
		}
		if model.WeekDayOf(date) != day {
			return time.Time{}, fmt.Errorf("%w: %s is a %s, not a %s", ErrInvalidDate, raw, model.WeekDayOf(date), day)
		}
		return date, nil
	}
	date, ok := availability.NextCalendarDateForWeekday(day, s.now().In(s.loc))
	if !ok {
		return time.Time{}, fmt.Errorf("invalid day_of_week %q", day)
	}
	return date, nil
}

func (s *classService) get(ctx context.Context, id string) (*model.GymClass, error) {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("get class", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return class, nil
}

// reload returns the stored class with its coach.
func (s *classService) reload(ctx context.Context, class *model.GymClass) (*dto.ClassResponse, error) {
	fresh, err := s.repo.Class.GetByID(ctx, class.ClassID)
	if err != nil {
		return toClassResponse(class), nil
	}
	return toClassResponse(fresh), nil
}

// normalizeClassTime rewrites a parseable range in the canonical en-dash
// form; anything else is kept so the resolver reports it.
func normalizeClassTime(raw string) string {
	if iv, ok := availability.ParseClassTimeRange(raw); ok {
		return availability.FormatClassTimeRange(iv)
	}
	return strings.TrimSpace(raw)
}

// extraCoaches the additional coaches without the primary one or duplicates.
func extraCoaches(primary string, ids []string) model.StringArray {
	out := model.StringArray{}
	seen := map[string]bool{primary: true}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// scheduleKey what decides a class's availability
func scheduleKey(c *model.GymClass) string {
	return strings.Join(c.AssignedCoachIDs(), ",") + "|" + string(c.DayOfWeek) + "|" + c.Time
}

func toClassResponse(c *model.GymClass) *dto.ClassResponse {
	var coach *dto.CoachBrief
	if c.Coach != nil {
		coach = toCoachBrief(c.Coach)
	}
	return &dto.ClassResponse{
		ID:          c.ClassID,
		Name:        c.Name,
		Description: c.Description,
		CoachID:     c.CoachID,
		Coach:       coach,
		CoachIDs:    []string(c.CoachIDs),
		DayOfWeek:   string(c.DayOfWeek),
		Time:        c.Time,
		ServiceType: string(c.ServiceType),
		Capacity:    c.Capacity,
		PriceCents:  c.PriceCents,
		Version:     c.Version,
	}
}
