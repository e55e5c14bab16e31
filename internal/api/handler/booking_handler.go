package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// BookingHandler member bookings
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler creates a BookingHandler.
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// Book a persisted slot id or a recurring_ id from the calendar. Paid
// sessions answer with checkout_url and status pending_payment.
// POST /api/v1/bookings
func (h *BookingHandler) Book(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	appt, err := h.bookingSvc.Book(c.Request.Context(), &req, caller)
	if err != nil {
		handleBookingError(c, err)
		return
	}
	response.Created(c, appt)
}

// ListMyBookings
// GET /api/v1/bookings/me
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	list, err := h.bookingSvc.ListMine(c.Request.Context(), caller)
	if err != nil {
		handleBookingError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CancelBooking
// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	appt, err := h.bookingSvc.Cancel(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		handleBookingError(c, err)
		return
	}
	response.OK(c, appt)
}

func handleBookingError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAppointmentNotFound):
		response.NotFound(c, 15001, "appointment not found")
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 14001, "slot not found")
	case errors.Is(err, service.ErrSlotUnavailable):
		response.Conflict(c, 15002, "slot is no longer offered")
	case errors.Is(err, service.ErrSlotFull):
		response.Conflict(c, 15003, "slot is fully booked")
	case errors.Is(err, service.ErrAlreadyBooked):
		response.Conflict(c, 15004, "you already hold a booking for this slot")
	case errors.Is(err, service.ErrNotCancellable):
		response.Conflict(c, 15005, "appointment can no longer be cancelled")
	case errors.Is(err, service.ErrSlotConflict):
		response.Conflict(c, 15002, "slot is no longer offered")
	case errors.Is(err, service.ErrCheckoutFailed):
		response.Error(c, http.StatusBadGateway, 15006, "payment provider unavailable, try again")
	default:
		response.InternalError(c)
	}
}
