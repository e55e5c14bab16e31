package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

// ClassFilter optional List filters
type ClassFilter struct {
	Day     model.WeekDay
	CoachID string // primary or additional coach
}

// ClassRepository weekly class data access
type ClassRepository interface {
	Create(ctx context.Context, class *model.GymClass) error
	GetByID(ctx context.Context, id string) (*model.GymClass, error)
	List(ctx context.Context, filter ClassFilter) ([]model.GymClass, error)
	Update(ctx context.Context, class *model.GymClass) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// ClassCoverLogRepository coach transfer audit log
type ClassCoverLogRepository interface {
	Create(ctx context.Context, log *model.ClassCoverLog) error
	ListByClass(ctx context.Context, classID string) ([]model.ClassCoverLog, error)
}

// ── ClassRepository ──

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo creates a ClassRepository.
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) Create(ctx context.Context, class *model.GymClass) error {
	return translateError(r.db.WithContext(ctx).Create(class).Error)
}

func (r *classRepo) GetByID(ctx context.Context, id string) (*model.GymClass, error) {
	var class model.GymClass
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Where("class_id = ?", id).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) List(ctx context.Context, filter ClassFilter) ([]model.GymClass, error) {
	var classes []model.GymClass
	db := r.db.WithContext(ctx).Preload("Coach")
	if filter.Day != "" {
		db = db.Where("day_of_week = ?", filter.Day)
	}
	if filter.CoachID != "" {
		db = db.Where("(coach_id = ? OR ?::uuid = ANY(coach_ids))", filter.CoachID, filter.CoachID)
	}
	err := db.Order(dayOrder + ", time ASC").Find(&classes).Error
	return classes, err
}

func (r *classRepo) Update(ctx context.Context, class *model.GymClass) error {
	oldVersion := class.Version
	result := r.db.WithContext(ctx).
		Model(class).
		Where("class_id = ? AND version = ?", class.ClassID, oldVersion).
		Updates(map[string]interface{}{
			"name":         class.Name,
			"description":  class.Description,
			"coach_id":     class.CoachID,
			"coach_ids":    class.CoachIDs,
			"day_of_week":  class.DayOfWeek,
			"time":         class.Time,
			"service_type": class.ServiceType,
			"capacity":     class.Capacity,
			"price_cents":  class.PriceCents,
			"updated_by":   class.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	class.Version = oldVersion + 1
	return nil
}

func (r *classRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.GymClass{}).
		Where("class_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── ClassCoverLogRepository ──

type classCoverLogRepo struct {
	db *gorm.DB
}

// NewClassCoverLogRepo creates a ClassCoverLogRepository.
func NewClassCoverLogRepo(db *gorm.DB) ClassCoverLogRepository {
	return &classCoverLogRepo{db: db}
}

func (r *classCoverLogRepo) Create(ctx context.Context, log *model.ClassCoverLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *classCoverLogRepo) ListByClass(ctx context.Context, classID string) ([]model.ClassCoverLog, error) {
	var logs []model.ClassCoverLog
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
