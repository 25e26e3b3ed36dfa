package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/invoxis/internal/config"
	"github.com/garyjia/invoxis/internal/container"
	httpserver "github.com/garyjia/invoxis/internal/interfaces/http"
	"github.com/garyjia/invoxis/pkg/utils"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "invoxis",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice service",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(container.FromAppConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown failed", zap.Error(err))
		}
	}()

	services := c.Services()
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		DefaultProfile: cfg.Profile.DefaultProfile,
		Debug:          cfg.Logger.Level == "debug",
	}, httpserver.Services{
		Drafts:     services.Draft,
		Profiles:   services.Profile,
		Exports:    services.Export,
		Dispatcher: c.Dispatcher(),
	}, c.ServiceLogger())

	// blocks until a signal arrives or the listener fails
	return server.Start(ctx)
}
