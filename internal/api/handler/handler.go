package handler

import (
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
)

// Handler aggregate of all handlers
type Handler struct {
	Auth         *AuthHandler
	Coach        *CoachHandler
	Availability *AvailabilityHandler
	Class        *ClassHandler
	Slot         *SlotHandler
	Booking      *BookingHandler
	Export       *ExportHandler
	Webhook      *WebhookHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Coach:        NewCoachHandler(svc.Coach),
		Availability: NewAvailabilityHandler(svc.Availability, svc.Unavailability),
		Class:        NewClassHandler(svc.Class),
		Slot:         NewSlotHandler(svc.Slot, svc.Calendar),
		Booking:      NewBookingHandler(svc.Booking),
		Export:       NewExportHandler(svc.Export),
		Webhook:      NewWebhookHandler(svc.Booking, logger),
	}
}
