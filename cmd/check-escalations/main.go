// Command check-escalations runs a single escalation sweep against the
// configured database and exits. Useful for cron-driven deployments that
// do not keep the server's background worker running.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/service"
	"github.com/expensehub/approval-engine/internal/config"
	"github.com/expensehub/approval-engine/internal/container"
	"github.com/expensehub/approval-engine/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 2*time.Minute, "sweep timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewDevelopmentLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	containerCfg := cfg.ToContainerConfig()

	db, err := container.ProvideDatabase(&containerCfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	repos, err := container.ProvideRepositories(db, logger)
	if err != nil {
		logger.Fatal("Failed to create repositories", zap.Error(err))
	}

	svc := service.NewEscalationService(repos.Instance, repos.Company, nil, &sweepLogger{logger: logger})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	flagged, err := svc.Sweep(ctx, time.Now())
	if err != nil {
		logger.Fatal("Sweep failed", zap.Error(err))
	}

	logger.Info("Sweep complete", zap.Int("flagged", flagged))
}

// sweepLogger adapts zap.Logger to the service Logger interface.
type sweepLogger struct {
	logger *zap.Logger
}

func (l *sweepLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Infow(msg, keysAndValues...)
}

func (l *sweepLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Warnw(msg, keysAndValues...)
}

func (l *sweepLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, keysAndValues...)
}
