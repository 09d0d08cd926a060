package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mc-economy-bridge/internal/config"
	"github.com/mc-economy-bridge/internal/data"
	"github.com/mc-economy-bridge/internal/data/mongo"
	"github.com/mc-economy-bridge/internal/event_relay"
	"github.com/mc-economy-bridge/internal/jobs"
	"github.com/mc-economy-bridge/internal/logger"
	"github.com/mc-economy-bridge/internal/platform/messaging/producers"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("event_relay")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Event Relay",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// The outbox only outlives a process when it lives in Postgres
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Error("Event relay requires STORAGE_DRIVER=postgres", "driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	storage, err := data.Open(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
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

	eventProducer, err := producers.NewEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize event Kafka producer", "error", err)
		os.Exit(1)
	}

	stores := storage.TxManager.Stores()
	publisher := event_relay.NewPublisher(stores.Outbox, ledgerRepo, eventProducer, log)
	poller := event_relay.NewPoller(&cfg.Outbox, stores.Outbox, publisher, log)

	scheduler := jobs.NewScheduler(log)
	janitor := jobs.NewLinkCodeJanitor(log, stores.LinkCodes, cfg.Jobs.LinkCodeRetention)
	if err := scheduler.Register(appCtx, cfg.Jobs.LinkCodeCleanupSchedule, janitor); err != nil {
		log.Error("Failed to schedule link code cleanup", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	scheduler.Stop(shutdownCtx)

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()
	select {
	case <-wgChan:
		log.Info("Outbox poller stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing event Kafka producer", "error", err)
	}

	storage.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	log.Info("Event Relay shutdown completed")
}
