package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// SlotHandler persisted slots and the month calendar
type SlotHandler struct {
	slotSvc     service.SlotService
	calendarSvc service.CalendarService
}

// NewSlotHandler creates a SlotHandler.
func NewSlotHandler(slotSvc service.SlotService, calendarSvc service.CalendarService) *SlotHandler {
	return &SlotHandler{slotSvc: slotSvc, calendarSvc: calendarSvc}
}

// ListSlots
// GET /api/v1/coaches/:id/slots?from=&to=
func (h *SlotHandler) ListSlots(c *gin.Context) {
	var req dto.SlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	list, err := h.slotSvc.ListByCoach(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleSlotError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateSlot
// POST /api/v1/coaches/:id/slots
func (h *SlotHandler) CreateSlot(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	slot, err := h.slotSvc.Create(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleSlotError(c, err)
		return
	}
	response.Created(c, slot)
}

// DeleteSlot
// DELETE /api/v1/slots/:id
func (h *SlotHandler) DeleteSlot(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	if err := h.slotSvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		handleSlotError(c, err)
		return
	}
	response.OK(c, nil)
}

// Calendar bookable slots of a month
// GET /api/v1/coaches/:id/calendar?month=YYYY-MM&service_type=PRIVATE
func (h *SlotHandler) Calendar(c *gin.Context) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	result, err := h.calendarSvc.MonthSlots(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleSlotError(c, err)
		return
	}
	response.OK(c, result)
}

func handleSlotError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrSlotNotFound):
		response.NotFound(c, 14001, "slot not found")
	case errors.Is(err, service.ErrSlotConflict):
		response.Conflict(c, 14002, "slot overlaps another slot of the coach")
	case errors.Is(err, service.ErrSlotBooked):
		response.Conflict(c, 14003, "slot has active bookings")
	case errors.Is(err, service.ErrSlotSpansDays):
		response.BadRequest(c, 14005, "slot must start and end on the same date")
	default:
		response.InternalError(c)
	}
}
