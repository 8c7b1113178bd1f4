package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"soundwave/internal/bot"
	"soundwave/internal/config"
	"soundwave/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet, print and bail
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: "text",
		File:   cfg.LogFile,
	})

	log.Infof("Starting %s v%s", cfg.BotName, cfg.Version)
	log.Infof("Stay Connected 24/7: %v", cfg.StayConnected247)

	// Initialize bot
	musicBot, err := bot.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Start bot
	ctx := context.Background()
	if err := musicBot.Start(ctx); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	log.Info("✅ Bot is now running. Press CTRL-C to exit.")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Cleanup
	log.Info("Shutting down gracefully...")
	musicBot.Stop()
	log.Info("Bot stopped successfully")
}
