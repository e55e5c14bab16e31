package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
)

var (
	ErrSlotNotFound  = errors.New("slot not found")
	ErrSlotBooked    = errors.New("slot has active bookings")
	ErrSlotSpansDays = errors.New("slot must start and end on the same date")
)

// defaultSlotRange listing window when no range is given
const defaultSlotRange = 28 * 24 * time.Hour

// SlotService persisted one-off slots. Creation applies the same block and
// class predicates as the resolver plus overlap with the coach's other slots.
type SlotService interface {
	Create(ctx context.Context, coachID string, req *dto.CreateSlotRequest, caller Caller) (*dto.SlotResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
	ListByCoach(ctx context.Context, coachID string, req *dto.SlotListRequest) ([]dto.SlotResponse, error)
}

type slotService struct {
	repo   *repository.Repository
	locker CoachLocker
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewSlotService creates a SlotService.
func NewSlotService(repo *repository.Repository, locker CoachLocker, loc *time.Location, logger *zap.Logger) SlotService {
	return &slotService{repo: repo, locker: locker, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *slotService) Create(ctx context.Context, coachID string, req *dto.CreateSlotRequest, caller Caller) (*dto.SlotResponse, error) {
	if err := caller.canManageCoach(coachID); err != nil {
		return nil, err
	}
	start, end := req.StartsAt.In(s.loc), req.EndsAt.In(s.loc)
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	if !start.After(s.now()) {
		return nil, ErrPastTime
	}
	candidate, err := dayInterval(start, end)
	if err != nil {
		return nil, err
	}

	coach, err := lookupCoach(ctx, s.repo, coachID)
	if err != nil {
		return nil, err
	}
	if !coach.IsActive {
		return nil, ErrCoachInactive
	}

	unlock, err := s.locker.Lock(ctx, coachID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	date := availability.StartOfDay(start)
	blocks, err := s.repo.Unavailability.ListByCoach(ctx, coachID, date, date)
	if err != nil {
		return nil, err
	}
	if block, found := availability.BlockingUnavailability(coachID, date, candidate, blocks); found {
		return nil, &AvailabilityError{CoachID: coachID, Reason: availability.BlockReason(block, date)}
	}

	day := model.WeekDayOf(start)
	classes, err := s.repo.Class.List(ctx, repository.ClassFilter{Day: day, CoachID: coachID})
	if err != nil {
		return nil, err
	}
	if class, found := availability.ConflictingClass(coachID, day, candidate, classes, ""); found {
		return nil, &AvailabilityError{CoachID: coachID, Reason: availability.ClassConflictReason(class)}
	}

	existing, err := s.repo.Slot.ListByCoach(ctx, coachID, start, end)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrSlotConflict
	}

	capacity := req.Capacity
	if capacity == 0 || model.ServiceType(req.ServiceType) == model.ServicePrivate {
		capacity = 1
	}
	slot := &model.BookableSlot{
		CoachID:     coachID,
		ServiceType: model.ServiceType(req.ServiceType),
		StartsAt:    start,
		EndsAt:      end,
		Capacity:    capacity,
		PriceCents:  req.PriceCents,
		Notes:       req.Notes,
	}
	slot.CreatedBy = &caller.UserID

	if err := s.repo.Slot.Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrSlotOverlap) {
			return nil, ErrSlotConflict
		}
		s.logger.Error("create slot", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	return toSlotResponse(slot, false, s.loc), nil
}

// ────────────────────── Delete ──────────────────────

func (s *slotService) Delete(ctx context.Context, id string, caller Caller) error {
	slot, err := s.repo.Slot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return err
	}
	if err := caller.canManageCoach(slot.CoachID); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, slot.CoachID)
	if err != nil {
		return err
	}
	defer unlock()

	active, err := s.repo.Appointment.ListActiveBySlots(ctx, []string{id})
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return ErrSlotBooked
	}

	if err := s.repo.Slot.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete slot", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ListByCoach ──────────────────────

func (s *slotService) ListByCoach(ctx context.Context, coachID string, req *dto.SlotListRequest) ([]dto.SlotResponse, error) {
	from := availability.StartOfDay(s.now().In(s.loc))
	to := from.Add(defaultSlotRange)
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
		to = to.AddDate(0, 0, 1) // inclusive end date
	}

	slots, err := s.repo.Slot.ListByCoach(ctx, coachID, from, to)
	if err != nil {
		s.logger.Error("list slots", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.SlotID)
	}
	appointments, err := s.repo.Appointment.ListActiveBySlots(ctx, ids)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]int)
	for _, a := range appointments {
		taken[a.SlotID]++
	}

	result := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		booked := taken[slots[i].SlotID] >= slots[i].Capacity
		result = append(result, *toSlotResponse(&slots[i], booked, s.loc))
	}
	return result, nil
}

// dayInterval minutes of [start, end) within start's date.
func dayInterval(start, end time.Time) (availability.Interval, error) {
	if !availability.SameDate(start, end) {
		return availability.Interval{}, ErrSlotSpansDays
	}
	return availability.Interval{
		StartMinutes: start.Hour()*60 + start.Minute(),
		EndMinutes:   end.Hour()*60 + end.Minute(),
	}, nil
}

func toSlotResponse(slot *model.BookableSlot, booked bool, loc *time.Location) *dto.SlotResponse {
	return &dto.SlotResponse{
		ID:          slot.SlotID,
		CoachID:     slot.CoachID,
		ServiceType: string(slot.ServiceType),
		StartsAt:    slot.StartsAt.In(loc).Format(time.RFC3339),
		EndsAt:      slot.EndsAt.In(loc).Format(time.RFC3339),
		Capacity:    slot.Capacity,
		PriceCents:  slot.PriceCents,
		Notes:       slot.Notes,
		IsBooked:    booked,
	}
}

// ── Calendar ────────────────────────────────────────────────

// CalendarService month view of a coach's bookable slots
type CalendarService interface {
	MonthSlots(ctx context.Context, coachID string, req *dto.CalendarRequest) (*dto.CalendarResponse, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarService creates a CalendarService.
func NewCalendarService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

func (s *calendarService) MonthSlots(ctx context.Context, coachID string, req *dto.CalendarRequest) (*dto.CalendarResponse, error) {
	anchor, err := time.ParseInLocation("2006-01", req.Month, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	serviceType := model.ServicePrivate
	if req.ServiceType != "" {
		serviceType = model.ServiceType(req.ServiceType)
	}

	coach, err := lookupCoach(ctx, s.repo, coachID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CalendarResponse{
		CoachID:     coachID,
		Month:       anchor.Format("2006-01"),
		ServiceType: string(serviceType),
		Timezone:    s.loc.String(),
		Slots:       []dto.SlotResponse{},
	}
	if !coach.IsActive {
		return resp, nil
	}

	slots, err := projectMonth(ctx, s.repo, coach, serviceType, anchor, s.now())
	if err != nil {
		s.logger.Error("project month", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, dto.SlotResponse{
			ID:          slot.ID,
			CoachID:     slot.CoachID,
			ServiceType: string(slot.ServiceType),
			StartsAt:    slot.StartsAt.Format(time.RFC3339),
			EndsAt:      slot.EndsAt.Format(time.RFC3339),
			Capacity:    slot.Capacity,
			PriceCents:  slot.PriceCents,
			IsBooked:    slot.IsBooked,
			IsRecurring: slot.IsRecurring,
		})
	}
	return resp, nil
}

// projectMonth snapshots everything the month projection reads.
func projectMonth(ctx context.Context, repo *repository.Repository, coach *model.Coach, serviceType model.ServiceType, anchor, now time.Time) ([]availability.BookableSlot, error) {
	monthStart := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	persisted, err := repo.Slot.ListByCoach(ctx, coach.CoachID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	windows, err := repo.Availability.ListByCoach(ctx, coach.CoachID)
	if err != nil {
		return nil, err
	}
	blocks, err := repo.Unavailability.ListByCoach(ctx, coach.CoachID, monthStart, monthEnd.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	classes, err := repo.Class.List(ctx, repository.ClassFilter{CoachID: coach.CoachID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(persisted))
	for _, slot := range persisted {
		ids = append(ids, slot.SlotID)
	}
	appointments, err := repo.Appointment.ListActiveBySlots(ctx, ids)
	if err != nil {
		return nil, err
	}

	return availability.GenerateBookableSlotsForMonth(availability.MonthParams{
		Coach:                 *coach,
		ServiceType:           serviceType,
		MonthAnchor:           anchor,
		PersistedSlots:        persisted,
		RecurringAvailability: windows,
		Unavailability:        blocks,
		Classes:               classes,
		Appointments:          appointments,
		Now:                   now,
	}), nil
}
