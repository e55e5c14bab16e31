package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
)

// UnavailabilityRepository one-off block data access
type UnavailabilityRepository interface {
	Create(ctx context.Context, u *model.CoachUnavailability) error
	BatchCreate(ctx context.Context, list []model.CoachUnavailability) error
	GetByID(ctx context.Context, id string) (*model.CoachUnavailability, error)
	// ListByCoach returns blocks dated within [from, to]; zero bounds are open.
	ListByCoach(ctx context.Context, coachID string, from, to time.Time) ([]model.CoachUnavailability, error)
	Delete(ctx context.Context, id string, deletedBy string) error
}

type unavailabilityRepo struct {
	db *gorm.DB
}

// NewUnavailabilityRepo creates an UnavailabilityRepository.
func NewUnavailabilityRepo(db *gorm.DB) UnavailabilityRepository {
	return &unavailabilityRepo{db: db}
}

func (r *unavailabilityRepo) Create(ctx context.Context, u *model.CoachUnavailability) error {
	return translateError(r.db.WithContext(ctx).Create(u).Error)
}

func (r *unavailabilityRepo) BatchCreate(ctx context.Context, list []model.CoachUnavailability) error {
	if len(list) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(&list, 100).Error)
}

func (r *unavailabilityRepo) GetByID(ctx context.Context, id string) (*model.CoachUnavailability, error) {
	var u model.CoachUnavailability
	err := r.db.WithContext(ctx).Where("unavailability_id = ?", id).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unavailabilityRepo) ListByCoach(ctx context.Context, coachID string, from, to time.Time) ([]model.CoachUnavailability, error) {
	var list []model.CoachUnavailability
	db := r.db.WithContext(ctx).Where("coach_id = ?", coachID)
	if !from.IsZero() {
		db = db.Where("date >= ?", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		db = db.Where("date <= ?", to.Format("2006-01-02"))
	}
	err := db.Order("date ASC, start_time ASC NULLS FIRST").Find(&list).Error
	return list, err
}

func (r *unavailabilityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.CoachUnavailability{}).
		Where("unavailability_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
