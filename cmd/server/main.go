package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/config"
	"github.com/expensehub/approval-engine/internal/container"
	httpserver "github.com/expensehub/approval-engine/internal/interfaces/http"
	"github.com/expensehub/approval-engine/pkg/utils"
)

func main() {
	// Load .env if present; real environment wins
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		c.Services().Expense,
		c.Services().Rule,
		c.Engine(),
		c.RateProvider(),
		&serverLogger{logger: logger},
	)

	// Start blocks until the context is cancelled or the listener fails
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()
	logger.Info("HTTP server listening", zap.String("addr", server.Address()))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
		cancel()
		if err := <-serverErr; err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	if err := c.Close(); err != nil {
		logger.Error("Container closed with errors", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// serverLogger adapts zap.Logger to the HTTP server's Logger interface.
type serverLogger struct {
	logger *zap.Logger
}

func (l *serverLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *serverLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, keysAndValues...)
}
