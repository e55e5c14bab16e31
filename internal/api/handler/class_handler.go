package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/dto"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// ClassHandler weekly classes
type ClassHandler struct {
	classSvc service.ClassService
}

// NewClassHandler creates a ClassHandler.
func NewClassHandler(classSvc service.ClassService) *ClassHandler {
	return &ClassHandler{classSvc: classSvc}
}

// ListClasses
// GET /api/v1/classes?day_of_week=&coach_id=
func (h *ClassHandler) ListClasses(c *gin.Context) {
	var req dto.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	list, err := h.classSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleClassError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateClass refused with 409 and the reason when a coach is unavailable
// POST /api/v1/classes
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		handleClassError(c, err)
		return
	}
	response.Created(c, class)
}

// UpdateClass
// PUT /api/v1/classes/:id
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleClassError(c, err)
		return
	}
	response.OK(c, class)
}

// TransferClass hands the class to a covering coach
// POST /api/v1/classes/:id/transfer
func (h *ClassHandler) TransferClass(c *gin.Context) {
	var req dto.TransferClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	class, err := h.classSvc.Transfer(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		handleClassError(c, err)
		return
	}
	response.OK(c, class)
}

// DeleteClass
// DELETE /api/v1/classes/:id
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	if err := h.classSvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		handleClassError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListCoverLogs
// GET /api/v1/classes/:id/cover-logs
func (h *ClassHandler) ListCoverLogs(c *gin.Context) {
	list, err := h.classSvc.ListCoverLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleClassError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CheckAvailability dry run; an unavailable coach is a 200 with is_available=false
// POST /api/v1/classes/check-availability
func (h *ClassHandler) CheckAvailability(c *gin.Context) {
	var req dto.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	result, err := h.classSvc.CheckAvailability(c.Request.Context(), &req)
	if err != nil {
		handleClassError(c, err)
		return
	}
	response.OK(c, result)
}

func handleClassError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 13001, "class not found")
	case errors.Is(err, service.ErrSameCoach):
		response.BadRequest(c, 13003, "class is already run by this coach")
	default:
		response.InternalError(c)
	}
}
