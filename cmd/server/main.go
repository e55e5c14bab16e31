package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lexhewitt/mcgann-boxing-sub000/config"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/api/handler"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/api/router"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/jobs"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/service"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/database"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/jwt"
	applogger "github.com/lexhewitt/mcgann-boxing-sub000/pkg/logger"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/payment"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/redis"
	"github.com/lexhewitt/mcgann-boxing-sub000/pkg/whatsapp"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default ./config/config.yaml)")
	rollback := flag.Bool("rollback", false, "revert every migration and exit")
	flag.Parse()

	// 1. environment and configuration
	// .env is optional; real deployments set RINGSIDE_* directly
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("gym", cfg.Gym.Name),
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Gym.Timezone),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if *rollback {
		if err := database.RollbackMigrations(sqlDB); err != nil {
			logger.Fatal("revert migrations", zap.Error(err))
		}
		logger.Info("migrations reverted")
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. Redis (optional: locks and rate limits fall back to this process)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, token revocation and cross-instance locks disabled", zap.Error(err))
			rdb = nil
		}
	}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	// 5. payments and notifications
	var gateway payment.Gateway
	stripeGateway, err := payment.NewStripeGateway(&cfg.Stripe)
	switch {
	case err == nil:
		gateway = stripeGateway
		logger.Info("stripe checkout enabled")
	case errors.Is(err, payment.ErrNotConfigured):
		logger.Info("stripe not configured, bookings confirm immediately")
	default:
		logger.Fatal("init stripe", zap.Error(err))
	}
	notifier := whatsapp.New(&cfg.WhatsApp, logger)

	// 6. dependency injection: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, service.Deps{
		Repo:      repo,
		JWT:       jwtMgr,
		Blacklist: blacklist,
		Locker:    service.NewCoachLocker(rdb, cfg.Gym.LockTTL, logger),
		Gateway:   gateway,
		Notifier:  notifier,
	}, logger)
	h := handler.NewHandler(svc, logger)

	// 7. routes
	engine, err := router.Setup(cfg, h, jwtMgr, rdb, repo, logger)
	if err != nil {
		logger.Fatal("setup router", zap.Error(err))
	}

	// 8. background jobs
	expiry, err := jobs.NewPaymentExpiry(cfg.Gym.ExpirySchedule, cfg.Gym.PendingPaymentTTL, svc.Booking, logger)
	if err != nil {
		logger.Fatal("schedule jobs", zap.Error(err))
	}
	if gateway != nil {
		expiry.Start()
	}

	// 9. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if gateway != nil {
		expiry.Stop(ctx)
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
