package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/expensehub/approval-engine/internal/application/service"
)

// EscalationWorkerConfig holds configuration for the escalation worker
type EscalationWorkerConfig struct {
	SweepInterval time.Duration
	SweepTimeout  time.Duration
}

// DefaultEscalationWorkerConfig returns default configuration
func DefaultEscalationWorkerConfig() EscalationWorkerConfig {
	return EscalationWorkerConfig{
		SweepInterval: 15 * time.Minute,
		SweepTimeout:  2 * time.Minute,
	}
}

// EscalationWorker periodically sweeps open workflows for SLA breaches.
type EscalationWorker struct {
	config  EscalationWorkerConfig
	service service.EscalationService
	logger  *zap.Logger

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	wg        sync.WaitGroup
}

// NewEscalationWorker creates a new escalation worker
func NewEscalationWorker(config EscalationWorkerConfig, svc service.EscalationService, logger *zap.Logger) *EscalationWorker {
	return &EscalationWorker{
		config:  config,
		service: svc,
		logger:  logger,
	}
}

// Start begins the periodic sweep loop
func (w *EscalationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("escalation worker already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("EscalationWorker started",
		zap.Duration("sweep_interval", w.config.SweepInterval))

	w.wg.Add(1)
	go w.sweepLoop()

	return nil
}

// Stop gracefully terminates the worker and waits for an in-flight sweep.
func (w *EscalationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.logger.Info("EscalationWorker stopped")
	return nil
}

// Name returns the worker name
func (w *EscalationWorker) Name() string {
	return "escalation-worker"
}

func (w *EscalationWorker) sweepLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// One sweep right away so a restart does not delay overdue flags by a
	// full interval.
	w.sweep()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *EscalationWorker) sweep() {
	ctx, cancel := context.WithTimeout(w.ctx, w.config.SweepTimeout)
	defer cancel()

	flagged, err := w.service.Sweep(ctx, time.Now())
	if err != nil {
		w.logger.Error("Escalation sweep failed", zap.Error(err))
		return
	}
	if flagged > 0 {
		w.logger.Info("Escalation sweep flagged workflows", zap.Int("flagged", flagged))
	}
}

// Verify interface compliance
var _ Worker = (*EscalationWorker)(nil)
