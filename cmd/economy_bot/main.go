package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mc-economy-bridge/internal/bot"
	"github.com/mc-economy-bridge/internal/config"
	"github.com/mc-economy-bridge/internal/data"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/mc-economy-bridge/internal/logger"
	"github.com/mc-economy-bridge/internal/platform/messaging/consumers"
	"github.com/mc-economy-bridge/internal/platform/messaging/producers"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("economy_bot")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	if cfg.Discord.BotToken == "" {
		log.Error("DISCORD_BOT_TOKEN is required")
		os.Exit(1)
	}

	log.Info("Starting Economy Bot",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	storage, err := data.Open(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	core := economy.NewCore(log, storage.TxManager, economy.Options{
		StartingBalance: cfg.Economy.StartingBalance,
		LinkCodeTTL:     cfg.Economy.LinkCodeTTL,
	})

	pool, err := bot.NewWorkerPool(cfg.WorkerPool, log)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	handler := bot.NewCommandHandler(log, core, cfg.Economy.CurrencyName, cfg.Economy.MarketPageSize)
	discordBot, err := bot.New(log, cfg.Discord.BotToken, cfg.Discord.GuildID, handler, pool)
	if err != nil {
		log.Error("Failed to initialize Discord bot", "error", err)
		os.Exit(1)
	}
	if err := discordBot.Start(); err != nil {
		log.Error("Failed to start Discord bot", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	var (
		kafkaConsumer *consumers.KafkaConsumer
		dlqProducer   *producers.DLQProducer
	)
	if cfg.Discord.MarketChannelID != "" {
		dlqProducer, err = producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize DLQ Kafka producer", "error", err)
			os.Exit(1)
		}

		announcer := bot.NewAnnouncer(log, discordBot.Session(), dlqProducer, cfg.Discord.MarketChannelID, cfg.Economy.CurrencyName)
		kafkaConsumer = consumers.NewKafkaConsumer(log, &cfg.Kafka)

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("Starting market announcer",
				"topic", cfg.Kafka.EventsTopic,
				"group", cfg.Kafka.ConsumerGroup,
				"channel_id", cfg.Discord.MarketChannelID,
			)
			if err := kafkaConsumer.Subscribe(appCtx, announcer.HandleMessage); err != nil {
				errChan <- fmt.Errorf("kafka consumer error: %w", err)
				return
			}
			<-kafkaConsumer.Done()
		}()
	} else {
		log.Info("DISCORD_MARKET_CHANNEL_ID not set, market announcements disabled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	log.Info("Starting graceful shutdown...")

	// Stop taking interactions first, then let in-flight commands finish
	if err = discordBot.Stop(); err != nil {
		log.Error("Error closing Discord session", "error", err)
	}
	pool.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()
	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if kafkaConsumer != nil {
		if err = kafkaConsumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}
	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	storage.Close()

	if serviceErr != nil {
		log.Error("Economy Bot shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Economy Bot shutdown completed successfully")
}
