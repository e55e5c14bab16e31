package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/api/handler"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/api/middleware"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/jwt"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/redis"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup builds the gin engine. rdb may be nil.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db Pinger, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Warn("readiness: database unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "up"
			if err := rdb.Ping(ctx); err != nil {
				redisStatus = "down"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up", "redis": redisStatus})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleCoach)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, time.Minute))
	{
		// public
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// signature-authenticated
		v1.POST("/webhooks/stripe", h.Webhook.Stripe)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// coaches, their weekly windows, blocks, slots and calendar
			coaches := authorized.Group("/coaches")
			{
				coaches.GET("", h.Coach.ListCoaches)
				coaches.POST("", admin, h.Coach.CreateCoach)
				coaches.GET("/:id", h.Coach.GetCoach)
				coaches.PUT("/:id", staff, h.Coach.UpdateCoach) // admin or the coach (service checks)

				coaches.GET("/:id/availability", h.Availability.ListAvailability)
				coaches.POST("/:id/availability", staff, h.Availability.CreateAvailability)
				coaches.GET("/:id/unavailability", h.Availability.ListUnavailability)
				coaches.POST("/:id/unavailability", staff, h.Availability.CreateUnavailability)
				coaches.POST("/:id/unavailability/import", staff, h.Availability.ImportICS)

				coaches.GET("/:id/slots", h.Slot.ListSlots)
				coaches.POST("/:id/slots", staff, h.Slot.CreateSlot)
				coaches.GET("/:id/calendar", h.Slot.Calendar)
			}

			authorized.PUT("/availability/:id", staff, h.Availability.UpdateAvailability)
			authorized.DELETE("/availability/:id", staff, h.Availability.DeleteAvailability)
			authorized.DELETE("/unavailability/:id", staff, h.Availability.DeleteUnavailability)
			authorized.DELETE("/slots/:id", staff, h.Slot.DeleteSlot)

			// weekly classes
			classes := authorized.Group("/classes")
			{
				classes.GET("", h.Class.ListClasses)
				classes.POST("", admin, h.Class.CreateClass)
				classes.POST("/check-availability", staff, h.Class.CheckAvailability)
				classes.PUT("/:id", admin, h.Class.UpdateClass)
				classes.DELETE("/:id", admin, h.Class.DeleteClass)
				classes.POST("/:id/transfer", admin, h.Class.TransferClass)
				classes.GET("/:id/cover-logs", staff, h.Class.ListCoverLogs)
			}

			// bookings
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", h.Booking.Book)
				bookings.GET("/me", h.Booking.ListMyBookings)
				bookings.POST("/:id/cancel", h.Booking.CancelBooking)
			}

			export := authorized.Group("/export")
			{
				export.GET("/coaches/:id/timetable", staff, h.Export.ExportCoachTimetable)
			}
		}
	}

	return r, nil
}
