package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/payment"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/whatsapp"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("slot is no longer offered")
	ErrSlotFull            = errors.New("slot is fully booked")
	ErrAlreadyBooked       = errors.New("you already hold a booking for this slot")
	ErrNotCancellable      = errors.New("appointment can no longer be cancelled")
	ErrCheckoutFailed      = errors.New("payment checkout could not be started")
)

// BookingOptions booking policy
type BookingOptions struct {
	Location          *time.Location
	Currency          string
	PendingPaymentTTL time.Duration
}

// BookingService member bookings of persisted and synthesized slots
type BookingService interface {
	Book(ctx context.Context, req *dto.BookRequest, caller Caller) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, id string, caller Caller) (*dto.AppointmentResponse, error)
	ListMine(ctx context.Context, caller Caller) ([]dto.AppointmentResponse, error)
	// HandleWebhook verifies and applies a payment provider event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ConfirmPayment(ctx context.Context, evt *payment.Event) error
	ExpirePayment(ctx context.Context, evt *payment.Event) error
	// ExpireStale cancels unpaid appointments created before cutoff.
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

type bookingService struct {
	repo     *repository.Repository
	locker   CoachLocker
	gateway  payment.Gateway // nil: bookings are confirmed without payment
	notifier whatsapp.Notifier
	opts     BookingOptions
	now      func() time.Time
	logger   *zap.Logger
}

// NewBookingService creates a BookingService. gateway may be nil.
func NewBookingService(
	repo *repository.Repository,
	locker CoachLocker,
	gateway payment.Gateway,
	notifier whatsapp.Notifier,
	opts BookingOptions,
	logger *zap.Logger,
) BookingService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &bookingService{
		repo:     repo,
		locker:   locker,
		gateway:  gateway,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// ────────────────────── Book ──────────────────────

func (s *bookingService) Book(ctx context.Context, req *dto.BookRequest, caller Caller) (*dto.AppointmentResponse, error) {
	var (
		appt *model.Appointment
		err  error
	)
	if availability.IsSyntheticSlotID(req.SlotID) {
		appt, err = s.bookSynthetic(ctx, req.SlotID, caller)
	} else {
		appt, err = s.bookPersisted(ctx, req.SlotID, caller)
	}
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(appt)
	if appt.Status == model.AppointmentPendingPayment {
		url, err := s.startCheckout(ctx, appt, caller)
		if err != nil {
			return nil, err
		}
		resp.CheckoutURL = url
		return resp, nil
	}

	s.notifyConfirmed(ctx, appt)
	return resp, nil
}

// bookPersisted books a stored slot while its row is locked.
func (s *bookingService) bookPersisted(ctx context.Context, slotID string, caller Caller) (*model.Appointment, error) {
	slot, err := s.repo.Slot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, slot.CoachID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var appt *model.Appointment
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Slot.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if !locked.StartsAt.After(s.now()) {
			return ErrPastTime
		}
		active, err := tx.Appointment.ListActiveBySlots(ctx, []string{slotID})
		if err != nil {
			return err
		}
		for _, a := range active {
			if a.MemberID == caller.UserID {
				return ErrAlreadyBooked
			}
		}
		if len(active) >= locked.Capacity {
			return ErrSlotFull
		}

		appt = s.newAppointment(locked, caller)
		return s.createAppointment(ctx, tx, appt)
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// bookSynthetic re-derives the offered slot from a fresh projection and
// materializes it together with the appointment.
func (s *bookingService) bookSynthetic(ctx context.Context, slotID string, caller Caller) (*model.Appointment, error) {
	coachID, start, ok := availability.ParseSyntheticSlotID(slotID)
	if !ok {
		return nil, ErrSlotNotFound
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

	projected, err := projectMonth(ctx, s.repo, coach, model.ServicePrivate, start.In(s.opts.Location), s.now())
	if err != nil {
		s.logger.Error("project month for booking", zap.String("coach_id", coachID), zap.Error(err))
		return nil, err
	}
	var offer *availability.BookableSlot
	for i := range projected {
		if projected[i].ID == slotID {
			offer = &projected[i]
			break
		}
	}
	if offer == nil || offer.IsBooked {
		return nil, ErrSlotUnavailable
	}

	var appt *model.Appointment
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		slot := &model.BookableSlot{
			CoachID:     coachID,
			ServiceType: model.ServicePrivate,
			StartsAt:    offer.StartsAt,
			EndsAt:      offer.EndsAt,
			Capacity:    1,
			PriceCents:  offer.PriceCents,
		}
		slot.CreatedBy = &caller.UserID
		if err := tx.Slot.Create(ctx, slot); err != nil {
			return slotConflict(err)
		}
		appt = s.newAppointment(slot, caller)
		return s.createAppointment(ctx, tx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recurring slot materialized",
		zap.String("coach_id", coachID),
		zap.String("slot_id", appt.SlotID),
		zap.Time("starts_at", appt.StartsAt),
	)
	return appt, nil
}

func (s *bookingService) newAppointment(slot *model.BookableSlot, caller Caller) *model.Appointment {
	status := model.AppointmentConfirmed
	if slot.PriceCents > 0 && s.gateway != nil {
		status = model.AppointmentPendingPayment
	}
	appt := &model.Appointment{
		SlotID:      slot.SlotID,
		CoachID:     slot.CoachID,
		MemberID:    caller.UserID,
		ServiceType: slot.ServiceType,
		StartsAt:    slot.StartsAt,
		EndsAt:      slot.EndsAt,
		Status:      status,
		PriceCents:  slot.PriceCents,
		Currency:    s.opts.Currency,
	}
	appt.CreatedBy = &caller.UserID
	return appt
}

func (s *bookingService) createAppointment(ctx context.Context, tx *repository.Repository, appt *model.Appointment) error {
	if err := tx.Appointment.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyBooked
		}
		s.logger.Error("create appointment", zap.String("slot_id", appt.SlotID), zap.Error(err))
		return err
	}
	return nil
}

// startCheckout opens a hosted payment page. The appointment is released
// when the session cannot be created.
func (s *bookingService) startCheckout(ctx context.Context, appt *model.Appointment, caller Caller) (string, error) {
	var email string
	if user, err := s.repo.User.GetByID(ctx, caller.UserID); err == nil {
		email = user.Email
	}

	session, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		AppointmentID: appt.AppointmentID,
		Description:   fmt.Sprintf("%s session %s", appt.ServiceType, appt.StartsAt.In(s.opts.Location).Format("Mon 2 Jan 15:04")),
		AmountCents:   appt.PriceCents,
		Currency:      appt.Currency,
		CustomerEmail: email,
		ExpiresAt:     s.now().Add(s.opts.PendingPaymentTTL),
	})
	if err != nil {
		s.logger.Error("create checkout", zap.String("appointment_id", appt.AppointmentID), zap.Error(err))
		if _, cerr := s.repo.Appointment.TransitionStatus(ctx, appt.AppointmentID, model.AppointmentPendingPayment, model.AppointmentCancelled); cerr != nil {
			s.logger.Error("release unpaid appointment", zap.String("appointment_id", appt.AppointmentID), zap.Error(cerr))
		}
		return "", fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	if err := s.repo.Appointment.SetStripeSession(ctx, appt.AppointmentID, session.ID); err != nil {
		s.logger.Error("store checkout session", zap.String("appointment_id", appt.AppointmentID), zap.Error(err))
		return "", err
	}
	appt.StripeSessionID = &session.ID
	return session.URL, nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel frees the slot. Members cancel their own bookings; the coach and
// admins cancel any booking of the coach.
func (s *bookingService) Cancel(ctx context.Context, id string, caller Caller) (*dto.AppointmentResponse, error) {
	appt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.MemberID != caller.UserID {
		if err := caller.canManageCoach(appt.CoachID); err != nil {
			return nil, pkgerrors.ErrForbidden
		}
	}
	if !appt.IsActive() || !appt.StartsAt.After(s.now()) {
		return nil, ErrNotCancellable
	}

	ok, err := s.repo.Appointment.TransitionStatus(ctx, id, appt.Status, model.AppointmentCancelled)
	if err != nil {
		s.logger.Error("cancel appointment", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		// status changed underneath us (paid or expired)
		return nil, ErrNotCancellable
	}
	appt.Status = model.AppointmentCancelled

	s.notify(ctx, appt, fmt.Sprintf("Your %s session on %s has been cancelled.",
		appt.ServiceType, appt.StartsAt.In(s.opts.Location).Format("Mon 2 Jan 15:04")))
	return s.toResponse(appt), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *bookingService) ListMine(ctx context.Context, caller Caller) ([]dto.AppointmentResponse, error) {
	list, err := s.repo.Appointment.ListByMember(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("list appointments", zap.String("member_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.AppointmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── payments ──────────────────────

func (s *bookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return payment.ErrNotConfigured
	}
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	switch evt.Type {
	case payment.EventCheckoutCompleted:
		return s.ConfirmPayment(ctx, evt)
	case payment.EventCheckoutExpired:
		return s.ExpirePayment(ctx, evt)
	default:
		s.logger.Debug("ignored payment event", zap.String("type", evt.Type), zap.String("id", evt.ID))
		return nil
	}
}

// ConfirmPayment confirms a paid appointment. Replayed events are no-ops.
func (s *bookingService) ConfirmPayment(ctx context.Context, evt *payment.Event) error {
	appt, err := s.appointmentForEvent(ctx, evt)
	if err != nil {
		return err
	}
	if evt.PaymentStatus != "" && evt.PaymentStatus != "paid" {
		s.logger.Info("checkout completed without payment",
			zap.String("appointment_id", appt.AppointmentID),
			zap.String("payment_status", evt.PaymentStatus),
		)
		return nil
	}

	ok, err := s.repo.Appointment.TransitionStatus(ctx, appt.AppointmentID, model.AppointmentPendingPayment, model.AppointmentConfirmed)
	if err != nil {
		s.logger.Error("confirm appointment", zap.String("appointment_id", appt.AppointmentID), zap.Error(err))
		return err
	}
	if !ok {
		if appt.Status == model.AppointmentCancelled {
			// paid after expiry; refunds are handled manually
			s.logger.Warn("payment for cancelled appointment",
				zap.String("appointment_id", appt.AppointmentID),
				zap.String("session_id", evt.SessionID),
			)
		}
		return nil
	}

	appt.Status = model.AppointmentConfirmed
	s.notifyConfirmed(ctx, appt)
	return nil
}

// ExpirePayment releases the slot of an abandoned checkout.
func (s *bookingService) ExpirePayment(ctx context.Context, evt *payment.Event) error {
	appt, err := s.appointmentForEvent(ctx, evt)
	if err != nil {
		return err
	}
	if _, err := s.repo.Appointment.TransitionStatus(ctx, appt.AppointmentID, model.AppointmentPendingPayment, model.AppointmentCancelled); err != nil {
		s.logger.Error("expire appointment", zap.String("appointment_id", appt.AppointmentID), zap.Error(err))
		return err
	}
	return nil
}

func (s *bookingService) ExpireStale(ctx context.Context, cutoff time.Time) (int, error) {
	pending, err := s.repo.Appointment.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, appt := range pending {
		ok, err := s.repo.Appointment.TransitionStatus(ctx, appt.AppointmentID, model.AppointmentPendingPayment, model.AppointmentCancelled)
		if err != nil {
			s.logger.Error("expire stale appointment", zap.String("appointment_id", appt.AppointmentID), zap.Error(err))
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *bookingService) appointmentForEvent(ctx context.Context, evt *payment.Event) (*model.Appointment, error) {
	if evt.AppointmentID != "" {
		return s.get(ctx, evt.AppointmentID)
	}
	appt, err := s.repo.Appointment.GetByStripeSession(ctx, evt.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appt, nil
}

// ── notifications ──

func (s *bookingService) notifyConfirmed(ctx context.Context, appt *model.Appointment) {
	s.notify(ctx, appt, fmt.Sprintf("Your %s session on %s is confirmed.",
		appt.ServiceType, appt.StartsAt.In(s.opts.Location).Format("Mon 2 Jan 15:04")))
}

// notify is best effort: failures are logged, never returned.
func (s *bookingService) notify(ctx context.Context, appt *model.Appointment, body string) {
	if s.notifier == nil {
		return
	}
	member, err := s.repo.User.GetByID(ctx, appt.MemberID)
	if err != nil || member.Phone == "" {
		return
	}
	if err := s.notifier.SendText(ctx, member.Phone, body); err != nil {
		s.logger.Warn("whatsapp notification failed",
			zap.String("appointment_id", appt.AppointmentID),
			zap.Error(err),
		)
	}
}

func (s *bookingService) get(ctx context.Context, id string) (*model.Appointment, error) {
	appt, err := s.repo.Appointment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (s *bookingService) toResponse(a *model.Appointment) *dto.AppointmentResponse {
	return &dto.AppointmentResponse{
		ID:          a.AppointmentID,
		SlotID:      a.SlotID,
		CoachID:     a.CoachID,
		Coach:       toCoachBrief(a.Coach),
		ServiceType: string(a.ServiceType),
		StartsAt:    a.StartsAt.In(s.opts.Location).Format(time.RFC3339),
		EndsAt:      a.EndsAt.In(s.opts.Location).Format(time.RFC3339),
		Status:      string(a.Status),
		PriceCents:  a.PriceCents,
		Currency:    a.Currency,
	}
}
