package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// handleCommonError writes the response for errors shared by every
// scheduling module. It reports false when err is not one of them.
func handleCommonError(c *gin.Context, err error) bool {
	if reason, ok := service.UnavailableReason(err); ok {
		response.ErrorWithDetails(c, http.StatusConflict, 13002, "coach is unavailable", reason)
		return true
	}
	switch {
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 10003, "operation not permitted")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "record was modified, reload and retry")
	case errors.Is(err, service.ErrBusy):
		response.Error(c, http.StatusServiceUnavailable, 10007, "schedule is being changed, retry shortly")
	case errors.Is(err, service.ErrCoachNotFound):
		response.NotFound(c, 12001, "coach not found")
	case errors.Is(err, service.ErrCoachInactive):
		response.Conflict(c, 12002, "coach is inactive")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 12006, "start time must be before end time")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12008, "invalid date")
	case errors.Is(err, service.ErrPastTime):
		response.BadRequest(c, 14004, "time is in the past")
	default:
		return false
	}
	return true
}
