package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

// AvailabilityRepository recurring weekly availability data access
type AvailabilityRepository interface {
	Create(ctx context.Context, a *model.CoachAvailability) error
	GetByID(ctx context.Context, id string) (*model.CoachAvailability, error)
	ListByCoach(ctx context.Context, coachID string) ([]model.CoachAvailability, error)
	Update(ctx context.Context, a *model.CoachAvailability) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo creates an AvailabilityRepository.
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Create(ctx context.Context, a *model.CoachAvailability) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *availabilityRepo) GetByID(ctx context.Context, id string) (*model.CoachAvailability, error) {
	var a model.CoachAvailability
	err := r.db.WithContext(ctx).Where("availability_id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *availabilityRepo) ListByCoach(ctx context.Context, coachID string) ([]model.CoachAvailability, error) {
	var list []model.CoachAvailability
	err := r.db.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order(dayOrder + ", start_time ASC").
		Find(&list).Error
	return list, err
}

// Update changes a window in place, keeping its id.
func (r *availabilityRepo) Update(ctx context.Context, a *model.CoachAvailability) error {
	oldVersion := a.Version
	result := r.db.WithContext(ctx).
		Model(a).
		Where("availability_id = ? AND version = ?", a.AvailabilityID, oldVersion).
		Updates(map[string]interface{}{
			"day_of_week": a.DayOfWeek,
			"start_time":  a.StartTime,
			"end_time":    a.EndTime,
			"updated_by":  a.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	a.Version = oldVersion + 1
	return nil
}

func (r *availabilityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.CoachAvailability{}).
		Where("availability_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// dayOrder sorts day_of_week names Monday first.
const dayOrder = `CASE day_of_week
	WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3
	WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6
	ELSE 7 END`
