// cmd/server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashia/dreambank/internal/app"
	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/utils"
)

func main() {
	logger := utils.GetLogger()

	cfg, err := config.InitConfig("")
	if err != nil {
		logger.Fatal("failed to load configuration", map[string]interface{}{"error": err.Error()})
	}

	logPath, err := utils.InitLogger(cfg.LogDir)
	if err != nil {
		logger.Warn("file logging disabled", map[string]interface{}{"error": err.Error()})
	}
	defer logger.Close()

	level, err := utils.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("falling back to info level", map[string]interface{}{"error": err.Error()})
	}
	logger.SetLogLevel(level)

	logger.Info("starting dreambank", map[string]interface{}{
		"version":  config.Version,
		"port":     cfg.Port,
		"storage":  cfg.StorageDriver,
		"log_file": logPath,
	})

	application := app.GetApp()
	if err := application.InitServices(cfg); err != nil {
		logger.Fatal("failed to initialize services", map[string]interface{}{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		logger.Error("failed to close storage", map[string]interface{}{"error": err.Error()})
	}
	if runErr != nil {
		logger.Error("server exited with error", map[string]interface{}{"error": runErr.Error()})
		logger.Close()
		os.Exit(1)
	}
}
