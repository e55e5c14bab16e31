package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// AvailabilityHandler recurring windows and one-off blocks of a coach
type AvailabilityHandler struct {
	availabilitySvc   service.AvailabilityService
	unavailabilitySvc service.UnavailabilityService
}

// NewAvailabilityHandler creates an AvailabilityHandler.
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService, unavailabilitySvc service.UnavailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc, unavailabilitySvc: unavailabilitySvc}
}

// ── recurring ──

// ListAvailability
// GET /api/v1/coaches/:id/availability
func (h *AvailabilityHandler) ListAvailability(c *gin.Context) {
	list, err := h.availabilitySvc.ListByCoach(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateAvailability
// POST /api/v1/coaches/:id/availability
func (h *AvailabilityHandler) CreateAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	window, err := h.availabilitySvc.Create(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.Created(c, window)
}

// UpdateAvailability
// PUT /api/v1/availability/:id
func (h *AvailabilityHandler) UpdateAvailability(c *gin.Context) {
	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	window, err := h.availabilitySvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.OK(c, window)
}

// DeleteAvailability
// DELETE /api/v1/availability/:id
func (h *AvailabilityHandler) DeleteAvailability(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	if err := h.availabilitySvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── one-off ──

// ListUnavailability
// GET /api/v1/coaches/:id/unavailability?from=&to=
func (h *AvailabilityHandler) ListUnavailability(c *gin.Context) {
	var req dto.UnavailabilityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	list, err := h.unavailabilitySvc.List(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateUnavailability
// POST /api/v1/coaches/:id/unavailability
func (h *AvailabilityHandler) CreateUnavailability(c *gin.Context) {
	var req dto.UnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	block, err := h.unavailabilitySvc.Create(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.Created(c, block)
}

// DeleteUnavailability
// DELETE /api/v1/unavailability/:id
func (h *AvailabilityHandler) DeleteUnavailability(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	if err := h.unavailabilitySvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.OK(c, nil)
}

// importICSRequest URL variant of the calendar import
type importICSRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ImportICS imports busy times from a calendar
// POST /api/v1/coaches/:id/unavailability/import
//
// Either:
//   - multipart/form-data with field "file"
//   - application/json {"url": "..."} (http, https or webcal)
func (h *AvailabilityHandler) ImportICS(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	coachID := c.Param("id")

	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		result, err := h.unavailabilitySvc.ImportICS(c.Request.Context(), coachID, file, caller)
		if err != nil {
			handleAvailabilityError(c, err)
			return
		}
		response.Created(c, result)
		return
	}

	var req importICSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.URL = c.PostForm("url")
		if req.URL == "" {
			response.BadRequest(c, 12009, "upload an ICS file or provide an ICS URL")
			return
		}
	}

	result, err := h.unavailabilitySvc.ImportICSURL(c.Request.Context(), coachID, req.URL, caller)
	if err != nil {
		handleAvailabilityError(c, err)
		return
	}
	response.Created(c, result)
}

func handleAvailabilityError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAvailabilityNotFound):
		response.NotFound(c, 12004, "availability window not found")
	case errors.Is(err, service.ErrUnavailabilityNotFound):
		response.NotFound(c, 12005, "unavailability not found")
	case errors.Is(err, service.ErrPartialTimeRange):
		response.BadRequest(c, 12007, "start_time and end_time must be given together")
	case errors.Is(err, service.ErrICSFetch):
		response.ErrorWithDetails(c, http.StatusBadGateway, 12010, "calendar feed could not be fetched", err.Error())
	case errors.Is(err, service.ErrICSParse):
		response.ErrorWithDetails(c, http.StatusBadRequest, 12011, "calendar feed is not valid iCalendar", err.Error())
	default:
		response.InternalError(c)
	}
}
