package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/database"
	"github.com/dominionwar/dominion/internal/handlers"
	"github.com/dominionwar/dominion/internal/notify"
	"github.com/dominionwar/dominion/internal/repositories"
	"github.com/dominionwar/dominion/internal/scheduler"
	"github.com/dominionwar/dominion/internal/services"
	"github.com/dominionwar/dominion/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	logger.Info("starting dominion combat core")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("production security validation failed", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("failed to run migrations", err)
	}

	userRepo := repositories.NewUserRepository(db)
	communityRepo := repositories.NewCommunityRepository(db)
	territoryRepo := repositories.NewTerritoryRepository(db)
	battleRepo := repositories.NewBattleRepository(db)
	rebellionRepo := repositories.NewRebellionRepository(db)
	modifierRepo := repositories.NewModifierRepository(db)

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.BotToken, userRepo)
		if err != nil {
			logger.Warn("notifier unavailable, falling back to noop", "error", err)
		} else {
			notifier = tg
		}
	}

	modifierService := services.NewModifierService(cfg, modifierRepo, communityRepo, userRepo)
	calc := services.NewDamageCalculator(cfg.CritMagnitude, cfg.RageCeiling)
	cascade := services.NewCascadeReconciler(cfg, battleRepo, userRepo, communityRepo,
		territoryRepo, modifierService, services.NoopWallet{}, notifier, services.NoopMissionTracker{})
	battleService := services.NewBattleService(db, cfg, battleRepo, territoryRepo,
		communityRepo, userRepo, modifierService, cascade, calc)
	rebellionService := services.NewRebellionService(db, cfg, rebellionRepo, battleRepo,
		communityRepo, userRepo, cascade, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(db, cfg, battleService, rebellionService, modifierService, userRepo)
	sched.Start(ctx)

	manager := handlers.NewManager(cfg, battleService, rebellionService)
	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      manager.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
