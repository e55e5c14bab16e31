package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// AppointmentRepository booking data access
type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	GetByStripeSession(ctx context.Context, sessionID string) (*model.Appointment, error)
	// ListActiveBySlots returns non-cancelled appointments of the given slots.
	ListActiveBySlots(ctx context.Context, slotIDs []string) ([]model.Appointment, error)
	ListByMember(ctx context.Context, memberID string) ([]model.Appointment, error)
	// ListActiveByCoach returns non-cancelled appointments starting in [from, to).
	ListActiveByCoach(ctx context.Context, coachID string, from, to time.Time) ([]model.Appointment, error)
	// ListPendingCreatedBefore returns pending_payment appointments older than cutoff.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.Appointment, error)
	SetStripeSession(ctx context.Context, id, sessionID string) error
	// TransitionStatus moves the appointment from one status to another and
	// reports whether the row was in the expected status.
	TransitionStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (bool, error)
}

type appointmentRepo struct {
	db *gorm.DB
}

// NewAppointmentRepo creates an AppointmentRepository.
func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *appointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("appointment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepo) GetByStripeSession(ctx context.Context, sessionID string) (*model.Appointment, error) {
	var a model.Appointment
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepo) ListActiveBySlots(ctx context.Context, slotIDs []string) ([]model.Appointment, error) {
	var list []model.Appointment
	if len(slotIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("slot_id IN ? AND status <> ?", slotIDs, model.AppointmentCancelled).
		Find(&list).Error
	return list, err
}

func (r *appointmentRepo) ListByMember(ctx context.Context, memberID string) ([]model.Appointment, error) {
	var list []model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("member_id = ?", memberID).
		Order("starts_at DESC").
		Find(&list).Error
	return list, err
}

func (r *appointmentRepo) ListActiveByCoach(ctx context.Context, coachID string, from, to time.Time) ([]model.Appointment, error) {
	var list []model.Appointment
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("coach_id = ? AND status <> ? AND starts_at >= ? AND starts_at < ?",
			coachID, model.AppointmentCancelled, from, to).
		Order("starts_at ASC").
		Find(&list).Error
	return list, err
}

func (r *appointmentRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.Appointment, error) {
	var list []model.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.AppointmentPendingPayment, cutoff).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *appointmentRepo) SetStripeSession(ctx context.Context, id, sessionID string) error {
	return translateError(r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("appointment_id = ?", id).
		Updates(map[string]interface{}{
			"stripe_session_id": sessionID,
			"updated_at":        gorm.Expr("NOW()"),
		}).Error)
}

func (r *appointmentRepo) TransitionStatus(ctx context.Context, id string, from, to model.AppointmentStatus) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": gorm.Expr("NOW()"),
	}
	if to == model.AppointmentCancelled {
		updates["cancelled_at"] = gorm.Expr("NOW()")
	}
	result := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("appointment_id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
