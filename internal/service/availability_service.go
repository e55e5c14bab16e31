package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
)

var (
	ErrAvailabilityNotFound   = errors.New("availability window not found")
	ErrUnavailabilityNotFound = errors.New("unavailability not found")
	ErrPartialTimeRange       = errors.New("start_time and end_time must be given together")
)

// icsImportHorizon how far ahead imported feeds are expanded.
const icsImportHorizon = 180 * 24 * time.Hour

// ── Recurring availability ──────────────────────────────────

// AvailabilityService recurring weekly windows of a coach
type AvailabilityService interface {
	Create(ctx context.Context, coachID string, req *dto.AvailabilityRequest, caller Caller) (*dto.AvailabilityResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAvailabilityRequest, caller Caller) (*dto.AvailabilityResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
	ListByCoach(ctx context.Context, coachID string) ([]dto.AvailabilityResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	locker CoachLocker
	logger *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService.
func NewAvailabilityService(repo *repository.Repository, locker CoachLocker, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, locker: locker, logger: logger}
}

func (s *availabilityService) Create(ctx context.Context, coachID string, req *dto.AvailabilityRequest, caller Caller) (*dto.AvailabilityResponse, error) {
	if err := caller.canManageCoach(coachID); err != nil {
		return nil, err
	}
	day, err := validateWindow(req)
	if err != nil {
		return nil, err
	}
	if _, err := lookupCoach(ctx, s.repo, coachID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, coachID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	window := &model.CoachAvailability{
		CoachID:   coachID,
		DayOfWeek: day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	window.CreatedBy = &caller.UserID
	if err := s.repo.Availability.Create(ctx, window); err != nil {
		s.logger.Error("create availability", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	return toAvailabilityResponse(window), nil
}

// Update edits the window in place; the id and therefore any references survive.
func (s *availabilityService) Update(ctx context.Context, id string, req *dto.UpdateAvailabilityRequest, caller Caller) (*dto.AvailabilityResponse, error) {
	day, err := validateWindow(&req.AvailabilityRequest)
	if err != nil {
		return nil, err
	}
	window, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.canManageCoach(window.CoachID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, window.CoachID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	window.DayOfWeek = day
	window.StartTime = req.StartTime
	window.EndTime = req.EndTime
	window.Version = req.Version
	window.UpdatedBy = &caller.UserID
	if err := s.repo.Availability.Update(ctx, window); err != nil {
		s.logger.Error("update availability", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAvailabilityResponse(window), nil
}

func (s *availabilityService) Delete(ctx context.Context, id string, caller Caller) error {
	window, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := caller.canManageCoach(window.CoachID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, window.CoachID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.Availability.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete availability", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *availabilityService) ListByCoach(ctx context.Context, coachID string) ([]dto.AvailabilityResponse, error) {
	list, err := s.repo.Availability.ListByCoach(ctx, coachID)
	if err != nil {
		s.logger.Error("list availability", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AvailabilityResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAvailabilityResponse(&list[i]))
	}
	return result, nil
}

func (s *availabilityService) get(ctx context.Context, id string) (*model.CoachAvailability, error) {
	window, err := s.repo.Availability.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}
	return window, nil
}

func validateWindow(req *dto.AvailabilityRequest) (model.WeekDay, error) {
	day, ok := model.ParseWeekDay(req.DayOfWeek)
	if !ok {
		return "", fmt.Errorf("invalid day_of_week %q", req.DayOfWeek)
	}
	if _, ok := availability.ParseTimeRange(req.StartTime, req.EndTime); !ok {
		return "", ErrInvalidTimeRange
	}
	return day, nil
}

func toAvailabilityResponse(a *model.CoachAvailability) *dto.AvailabilityResponse {
	return &dto.AvailabilityResponse{
		ID:        a.AvailabilityID,
		CoachID:   a.CoachID,
		DayOfWeek: string(a.DayOfWeek),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Version:   a.Version,
	}
}

// ── One-off unavailability ──────────────────────────────────

// UnavailabilityService dated blocks that override recurring availability
type UnavailabilityService interface {
	Create(ctx context.Context, coachID string, req *dto.UnavailabilityRequest, caller Caller) (*dto.UnavailabilityResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
	List(ctx context.Context, coachID string, req *dto.UnavailabilityListRequest) ([]dto.UnavailabilityResponse, error)
	ImportICS(ctx context.Context, coachID string, r io.Reader, caller Caller) (*dto.ImportUnavailabilityResponse, error)
	ImportICSURL(ctx context.Context, coachID, url string, caller Caller) (*dto.ImportUnavailabilityResponse, error)
}

type unavailabilityService struct {
	repo   *repository.Repository
	locker CoachLocker
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewUnavailabilityService creates an UnavailabilityService. Dates are read in loc.
func NewUnavailabilityService(repo *repository.Repository, locker CoachLocker, loc *time.Location, logger *zap.Logger) UnavailabilityService {
	return &unavailabilityService{repo: repo, locker: locker, loc: loc, now: time.Now, logger: logger}
}

func (s *unavailabilityService) Create(ctx context.Context, coachID string, req *dto.UnavailabilityRequest, caller Caller) (*dto.UnavailabilityResponse, error) {
	if err := caller.canManageCoach(coachID); err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date, s.loc)
	if err != nil {
		return nil, err
	}
	if (req.StartTime == nil) != (req.EndTime == nil) {
		return nil, ErrPartialTimeRange
	}
	if req.StartTime != nil {
		if _, ok := availability.ParseTimeRange(*req.StartTime, *req.EndTime); !ok {
			return nil, ErrInvalidTimeRange
		}
	}
	if _, err := lookupCoach(ctx, s.repo, coachID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, coachID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	block := &model.CoachUnavailability{
		CoachID:   coachID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Source:    "manual",
	}
	block.CreatedBy = &caller.UserID
	if err := s.repo.Unavailability.Create(ctx, block); err != nil {
		s.logger.Error("create unavailability", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	return toUnavailabilityResponse(block), nil
}

func (s *unavailabilityService) Delete(ctx context.Context, id string, caller Caller) error {
	block, err := s.repo.Unavailability.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnavailabilityNotFound
		}
		return err
	}
	if err := caller.canManageCoach(block.CoachID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, block.CoachID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.Unavailability.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete unavailability", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *unavailabilityService) List(ctx context.Context, coachID string, req *dto.UnavailabilityListRequest) ([]dto.UnavailabilityResponse, error) {
	var from, to time.Time
	var err error
	if req.From != "" {
		if from, err = parseDate(req.From, s.loc); err != nil {
			return nil, err
		}
	}
	if req.To != "" {
		if to, err = parseDate(req.To, s.loc); err != nil {
			return nil, err
		}
	}

	list, err := s.repo.Unavailability.ListByCoach(ctx, coachID, from, to)
	if err != nil {
		s.logger.Error("list unavailability", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.UnavailabilityResponse, 0, len(list))
	for i := range list {
		result = append(result, *toUnavailabilityResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── ImportICS ──────────────────────

// ImportICS stores the feed's busy times from today to the import horizon as
// blocks. Blocks already present for the same date and times are skipped.
func (s *unavailabilityService) ImportICS(ctx context.Context, coachID string, r io.Reader, caller Caller) (*dto.ImportUnavailabilityResponse, error) {
	if err := caller.canManageCoach(coachID); err != nil {
		return nil, err
	}
	if _, err := lookupCoach(ctx, s.repo, coachID); err != nil {
		return nil, err
	}

	from := availability.StartOfDay(s.now().In(s.loc))
	to := from.Add(icsImportHorizon)
	blocks, err := ParseICS(r, coachID, from, to, s.loc)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, coachID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.repo.Unavailability.ListByCoach(ctx, coachID, from, to)
	if err != nil {
		s.logger.Error("list unavailability for import", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, b := range existing {
		known[blockKey(b)] = true
	}

	result := &dto.ImportUnavailabilityResponse{}
	fresh := make([]model.CoachUnavailability, 0, len(blocks))
	for _, b := range blocks {
		if known[blockKey(b)] {
			result.Skipped++
			continue
		}
		b.CreatedBy = &caller.UserID
		fresh = append(fresh, b)
	}

	if err := s.repo.Unavailability.BatchCreate(ctx, fresh); err != nil {
		s.logger.Error("import unavailability", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	result.Imported = len(fresh)

	s.logger.Info("ics imported",
		zap.String("coach_id", coachID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ImportICSURL fetches a feed and imports it.
func (s *unavailabilityService) ImportICSURL(ctx context.Context, coachID, url string, caller Caller) (*dto.ImportUnavailabilityResponse, error) {
	if err := caller.canManageCoach(coachID); err != nil {
		return nil, err
	}
	body, err := FetchICSContent(url)
	if err != nil {
		s.logger.Warn("fetch ics", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	defer body.Close()
	return s.ImportICS(ctx, coachID, body, caller)
}

func toUnavailabilityResponse(u *model.CoachUnavailability) *dto.UnavailabilityResponse {
	return &dto.UnavailabilityResponse{
		ID:        u.UnavailabilityID,
		CoachID:   u.CoachID,
		Date:      u.Date.Format(availability.DateLayout),
		StartTime: u.StartTime,
		EndTime:   u.EndTime,
		FullDay:   u.IsFullDay(),
		Reason:    u.Reason,
		Source:    u.Source,
	}
}

// lookupCoach loads a coach, mapping a missing row to ErrCoachNotFound.
func lookupCoach(ctx context.Context, repo *repository.Repository, id string) (*model.Coach, error) {
	coach, err := repo.Coach.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return coach, nil
}
