package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekodecrux/expertaitutor3-sub001/internal/api"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/config"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/db"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/logger"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/repository/sqlite"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/rewards"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/services"
	"github.com/ekodecrux/expertaitutor3-sub001/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Review Scheduler Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("request_timeout_seconds=%d", cfg.RequestTimeoutSeconds)
	log.Debug("reward_worker_count=%d", cfg.RewardWorkerCount)
	log.Debug("reward_queue_size=%d", cfg.RewardQueueSize)
	log.Debug("review_retry_attempts=%d", cfg.ReviewRetryAttempts)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Initialize worker pool for reward notifications
	rewardPool := worker.NewPool(cfg.RewardWorkerCount, cfg.RewardQueueSize)

	// Initialize services
	scheduleRepo := sqlite.NewScheduleRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	scheduleService := services.NewScheduleService(scheduleRepo, sessionRepo, rewardPool, rewards.LogNotifier{}, cfg.ReviewRetryAttempts)

	srv := &api.Server{
		ScheduleService: scheduleService,
		DB:              database,
	}

	ctx, cancel := context.WithCancel(context.Background())
	rewardPool.Start(ctx)

	// Configure HTTP server
	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Cancel worker context
	log.Debug("stopping reward pool")
	cancel()

	// Shutdown HTTP server
	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Wait for workers to finish
	rewardPool.Stop()

	log.Info("===========================================")
	log.Info("Review Scheduler Stopped")
	log.Info("===========================================")
}
