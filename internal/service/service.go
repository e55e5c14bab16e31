package service

import (
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/jwt"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/payment"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/whatsapp"
)

// Service aggregate of every service
type Service struct {
	Auth           AuthService
	Coach          CoachService
	Availability   AvailabilityService
	Unavailability UnavailabilityService
	Class          ClassService
	Slot           SlotService
	Calendar       CalendarService
	Booking        BookingService
	Export         ExportService
}

// Deps collaborators shared by the services. Blacklist and Gateway may be nil.
type Deps struct {
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Locker    CoachLocker
	Gateway   payment.Gateway
	Notifier  whatsapp.Notifier
}

// NewService wires every service.
func NewService(cfg *config.Config, deps Deps, logger *zap.Logger) *Service {
	loc := cfg.Gym.Location()
	return &Service{
		Auth:           NewAuthService(deps.Repo, deps.JWT, deps.Blacklist, logger),
		Coach:          NewCoachService(deps.Repo, logger),
		Availability:   NewAvailabilityService(deps.Repo, deps.Locker, logger),
		Unavailability: NewUnavailabilityService(deps.Repo, deps.Locker, loc, logger),
		Class:          NewClassService(deps.Repo, deps.Locker, loc, logger),
		Slot:           NewSlotService(deps.Repo, deps.Locker, loc, logger),
		Calendar:       NewCalendarService(deps.Repo, loc, logger),
		Booking: NewBookingService(deps.Repo, deps.Locker, deps.Gateway, deps.Notifier, BookingOptions{
			Location:          loc,
			Currency:          cfg.Gym.Currency,
			PendingPaymentTTL: cfg.Gym.PendingPaymentTTL,
		}, logger),
		Export: NewExportService(deps.Repo, loc, logger),
	}
}
