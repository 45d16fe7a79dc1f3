// Package container provides dependency injection and lifecycle management
// for the approval engine following Clean Architecture principles.
package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/dispatcher"
	"github.com/expensehub/approval-engine/internal/application/port"
	"github.com/expensehub/approval-engine/internal/application/service"
	appworkflow "github.com/expensehub/approval-engine/internal/application/workflow"
	"github.com/expensehub/approval-engine/internal/infrastructure/external/exchange"
	"github.com/expensehub/approval-engine/internal/infrastructure/external/openai"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/repository"
	"github.com/expensehub/approval-engine/internal/infrastructure/persistence/sqlite"
	"github.com/expensehub/approval-engine/internal/infrastructure/worker"
)

// ExternalBundle holds clients for third-party services.
type ExternalBundle struct {
	Converter port.CurrencyConverter
	Rates     port.RateProvider
	Extractor port.ReceiptExtractor
}

// ProvideDatabase opens the database, runs pending migrations and returns
// the connection wrapper that doubles as the transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*sqlite.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := sqlite.Open(sqlite.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := sqlite.Migrate(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Expense:  repository.NewExpenseRepository(db, logger),
		Rule:     repository.NewRuleRepository(db, logger),
		Instance: repository.NewInstanceRepository(db, logger),
		Ledger:   repository.NewRecordRepository(db, logger),
		Roster:   repository.NewRosterRepository(db, logger),
		Company:  repository.NewCompanyRepository(db, logger),
	}, nil
}

// ProvideExternalClients creates the exchange-rate client and, when an API
// key is configured, the receipt extractor.
func ProvideExternalClients(exchangeCfg *ExchangeConfig, openaiCfg *OpenAIConfig, logger *zap.Logger) (*ExternalBundle, error) {
	if exchangeCfg == nil {
		return nil, fmt.Errorf("exchange config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client := exchange.NewClient(exchange.Config{
		BaseURL: exchangeCfg.BaseURL,
		Timeout: exchangeCfg.Timeout,
	}, logger)

	bundle := &ExternalBundle{
		Converter: client,
		Rates:     client,
	}

	if openaiCfg != nil && openaiCfg.APIKey != "" {
		bundle.Extractor = openai.NewExtractor(openaiCfg.APIKey, openaiCfg.Model, logger)
	} else {
		logger.Info("Receipt extraction disabled, no API key configured")
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	), nil
}

// EngineDeps holds dependencies for the workflow engine.
type EngineDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
}

// ProvideEngine creates the approval workflow engine.
func ProvideEngine(deps *EngineDeps) (appworkflow.Engine, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	opts := []appworkflow.EngineOption{}
	if deps.Dispatcher != nil {
		opts = append(opts, appworkflow.WithDispatcher(deps.Dispatcher))
	}

	return appworkflow.NewEngine(
		deps.Repos.Instance,
		deps.Repos.Expense,
		deps.Repos.Ledger,
		deps.Repos.Roster,
		deps.TxManager,
		opts...,
	), nil
}

// ServiceDeps holds dependencies for application services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	External   *ExternalBundle
	Engine     appworkflow.Engine
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.External == nil {
		return nil, fmt.Errorf("external clients are required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("workflow engine is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Expense: service.NewExpenseService(
			deps.Repos.Expense,
			deps.Repos.Rule,
			deps.Repos.Instance,
			deps.Repos.Company,
			deps.External.Converter,
			deps.External.Extractor,
			deps.Engine,
			deps.TxManager,
			deps.Dispatcher,
			serviceLogger,
		),
		Rule: service.NewRuleService(deps.Repos.Rule, serviceLogger),
		Escalation: service.NewEscalationService(
			deps.Repos.Instance,
			deps.Repos.Company,
			deps.Dispatcher,
			serviceLogger,
		),
	}, nil
}

// WorkerDeps holds dependencies for background workers.
type WorkerDeps struct {
	Services      *ServiceBundle
	EscalationCfg *EscalationConfig
	Logger        *zap.Logger
}

// ProvideWorkers creates the worker manager with all background workers
// registered. Workers are not started; the caller owns the lifecycle.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil || deps.Services == nil {
		return nil, fmt.Errorf("services are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	cfg := worker.DefaultEscalationWorkerConfig()
	if deps.EscalationCfg != nil {
		if deps.EscalationCfg.SweepInterval > 0 {
			cfg.SweepInterval = deps.EscalationCfg.SweepInterval
		}
		if deps.EscalationCfg.SweepTimeout > 0 {
			cfg.SweepTimeout = deps.EscalationCfg.SweepTimeout
		}
	}

	manager := worker.NewManager(deps.Logger)
	manager.Register(worker.NewEscalationWorker(cfg, deps.Services.Escalation, deps.Logger))

	return manager, nil
}
