package main

import (
	"os"
	"os/signal"
	"syscall"

	"recovery-plan/internal/app"
	"recovery-plan/internal/config"
	"recovery-plan/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("❌ Failed to load configuration", "error", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Fatal("❌ Failed to configure logging", "error", err)
	}
	if err := cfg.Validate(true); err != nil {
		logger.Fatal("❌ Invalid configuration", "error", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		logger.Fatal("❌ Failed to create application", "error", err)
	}

	if err := application.Start(); err != nil {
		logger.Fatal("❌ Failed to start application", "error", err)
	}
	defer application.Stop()

	waitForShutdown()
	logger.Info("👋 Shutting down")
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
