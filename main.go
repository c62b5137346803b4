package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/cafe-app/config"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/kds"
	"github.com/yeremiapane/cafe-app/router"
	"github.com/yeremiapane/cafe-app/services"
	"github.com/yeremiapane/cafe-app/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	tokens, err := utils.NewTokenService(cfg.TokenConfig())
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up tokens: %v", err)
	}

	rdb := config.NewRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	r, monitor := router.SetupRouter(router.Options{
		DB:                  db,
		Tokens:              tokens,
		Redis:               rdb,
		Publisher:           services.NewQueuePublisher(cfg.RabbitMQURL),
		Hub:                 kds.NewHub(),
		BcryptCost:          cfg.BcryptCost,
		CORSOrigins:         cfg.CORSOrigins,
		AuthRateLimit:       cfg.AuthRateLimit,
		PointsRetryInterval: cfg.PointsRetryInterval,
	})
	monitor.Start()
	defer monitor.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Graceful shutdown failed: %v", err)
	}
}
