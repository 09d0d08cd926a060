package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mc-economy-bridge/internal/api_gateway"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
	"github.com/mc-economy-bridge/internal/config"
	"github.com/mc-economy-bridge/internal/data"
	"github.com/mc-economy-bridge/internal/data/mongo"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/mc-economy-bridge/internal/logger"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("economy_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	storage, err := data.Open(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())
	if err := ledgerRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure history indexes", "error", err)
		os.Exit(1)
	}

	core := economy.NewCore(log, storage.TxManager, economy.Options{
		StartingBalance: cfg.Economy.StartingBalance,
		LinkCodeTTL:     cfg.Economy.LinkCodeTTL,
	})
	historyService := service.NewHistoryService(log, ledgerRepo)

	server := api_gateway.NewServer(log, cfg, core, historyService)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain requests before the pool goes away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	storage.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil || err != nil {
		log.Error("Economy API shutdown completed with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Economy API shutdown completed successfully")
}
