package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of every repository
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Coach          CoachRepository
	Availability   AvailabilityRepository
	Unavailability UnavailabilityRepository
	Class          ClassRepository
	CoverLog       ClassCoverLogRepository
	Slot           SlotRepository
	Appointment    AppointmentRepository
}

// NewRepository builds the aggregate on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Coach:          NewCoachRepo(db),
		Availability:   NewAvailabilityRepo(db),
		Unavailability: NewUnavailabilityRepo(db),
		Class:          NewClassRepo(db),
		CoverLog:       NewClassCoverLogRepo(db),
		Slot:           NewSlotRepo(db),
		Appointment:    NewAppointmentRepo(db),
	}
}

// BeginTx starts a transaction; pair with WithTx.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate whose repositories all run on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn inside one database transaction, rolling back when fn
// returns an error. An aggregate assembled without a connection (in-memory
// repositories in tests) runs fn directly on itself.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
