package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/jwt"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/response"
)

// Context keys set by middleware.JWTAuth.
const (
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxCoachID = "coach_id"
	CtxClaims  = "claims"
)

// MustGetUserID extracts user_id from the gin context. When the JWT
// middleware did not run it writes a 401 and returns false; the caller
// should return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetCaller the authenticated user as seen by the services.
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString(CtxRole)
	if role == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:  userID,
		Role:    role,
		CoachID: c.GetString(CtxCoachID),
	}, true
}

// MustGetClaims the parsed access token.
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	return claims, true
}
