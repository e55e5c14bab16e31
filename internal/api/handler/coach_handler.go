package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// CoachHandler coach profiles
type CoachHandler struct {
	coachSvc service.CoachService
}

// NewCoachHandler creates a CoachHandler.
func NewCoachHandler(coachSvc service.CoachService) *CoachHandler {
	return &CoachHandler{coachSvc: coachSvc}
}

// ListCoaches
// GET /api/v1/coaches
func (h *CoachHandler) ListCoaches(c *gin.Context) {
	var req dto.CoachListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	list, err := h.coachSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetCoach
// GET /api/v1/coaches/:id
func (h *CoachHandler) GetCoach(c *gin.Context) {
	coach, err := h.coachSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleCoachError(c, err)
		return
	}
	response.OK(c, coach)
}

// CreateCoach
// POST /api/v1/coaches
func (h *CoachHandler) CreateCoach(c *gin.Context) {
	var req dto.CreateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	coach, err := h.coachSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		handleCoachError(c, err)
		return
	}
	response.Created(c, coach)
}

// UpdateCoach
// PUT /api/v1/coaches/:id
func (h *CoachHandler) UpdateCoach(c *gin.Context) {
	var req dto.UpdateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	coach, err := h.coachSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleCoachError(c, err)
		return
	}
	response.OK(c, coach)
}

func handleCoachError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCoachUserLinked):
		response.Conflict(c, 12003, "user is already linked to a coach")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11004, "user not found")
	default:
		response.InternalError(c)
	}
}
