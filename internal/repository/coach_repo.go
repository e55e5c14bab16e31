package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

// CoachRepository coach profile data access
type CoachRepository interface {
	Create(ctx context.Context, coach *model.Coach) error
	GetByID(ctx context.Context, id string) (*model.Coach, error)
	GetByUserID(ctx context.Context, userID string) (*model.Coach, error)
	List(ctx context.Context, activeOnly bool) ([]model.Coach, error)
	Update(ctx context.Context, coach *model.Coach) error
}

type coachRepo struct {
	db *gorm.DB
}

// NewCoachRepo creates a CoachRepository.
func NewCoachRepo(db *gorm.DB) CoachRepository {
	return &coachRepo{db: db}
}

func (r *coachRepo) Create(ctx context.Context, coach *model.Coach) error {
	return translateError(r.db.WithContext(ctx).Create(coach).Error)
}

func (r *coachRepo) GetByID(ctx context.Context, id string) (*model.Coach, error) {
	var coach model.Coach
	err := r.db.WithContext(ctx).
		Where("coach_id = ?", id).
		First(&coach).Error
	if err != nil {
		return nil, err
	}
	return &coach, nil
}

func (r *coachRepo) GetByUserID(ctx context.Context, userID string) (*model.Coach, error) {
	var coach model.Coach
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&coach).Error
	if err != nil {
		return nil, err
	}
	return &coach, nil
}

func (r *coachRepo) List(ctx context.Context, activeOnly bool) ([]model.Coach, error) {
	var coaches []model.Coach
	db := r.db.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&coaches).Error
	return coaches, err
}

// Update optimistic-locked update of the editable profile fields.
func (r *coachRepo) Update(ctx context.Context, coach *model.Coach) error {
	oldVersion := coach.Version
	result := r.db.WithContext(ctx).
		Model(coach).
		Where("coach_id = ? AND version = ?", coach.CoachID, oldVersion).
		Updates(map[string]interface{}{
			"name":               coach.Name,
			"email":              coach.Email,
			"phone":              coach.Phone,
			"bio":                coach.Bio,
			"private_rate_cents": coach.PrivateRateCents,
			"is_active":          coach.IsActive,
			"user_id":            coach.UserID,
			"updated_by":         coach.UpdatedBy,
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	coach.Version = oldVersion + 1
	return nil
}
