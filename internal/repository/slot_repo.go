package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// SlotRepository persisted bookable slot data access
type SlotRepository interface {
	// Create fails with ErrSlotOverlap when the coach already has a live
	// slot sharing time with the new one.
	Create(ctx context.Context, slot *model.BookableSlot) error
	GetByID(ctx context.Context, id string) (*model.BookableSlot, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*model.BookableSlot, error)
	// ListByCoach returns slots overlapping [from, to).
	ListByCoach(ctx context.Context, coachID string, from, to time.Time) ([]model.BookableSlot, error)
	Delete(ctx context.Context, id string, deletedBy string) error
}

type slotRepo struct {
	db *gorm.DB
}

// NewSlotRepo creates a SlotRepository.
func NewSlotRepo(db *gorm.DB) SlotRepository {
	return &slotRepo{db: db}
}

func (r *slotRepo) Create(ctx context.Context, slot *model.BookableSlot) error {
	return translateError(r.db.WithContext(ctx).Create(slot).Error)
}

func (r *slotRepo) GetByID(ctx context.Context, id string) (*model.BookableSlot, error) {
	var slot model.BookableSlot
	err := r.db.WithContext(ctx).Where("slot_id = ?", id).First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.BookableSlot, error) {
	var slot model.BookableSlot
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepo) ListByCoach(ctx context.Context, coachID string, from, to time.Time) ([]model.BookableSlot, error) {
	var slots []model.BookableSlot
	err := r.db.WithContext(ctx).
		Where("coach_id = ? AND starts_at < ? AND ends_at > ?", coachID, to, from).
		Order("starts_at ASC").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.BookableSlot{}).
		Where("slot_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
