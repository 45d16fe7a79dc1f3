package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubEscalationService struct {
	sweeps int32
}

func (s *stubEscalationService) Sweep(ctx context.Context, now time.Time) (int, error) {
	atomic.AddInt32(&s.sweeps, 1)
	return 0, nil
}

func TestEscalationWorker_SweepsPeriodically(t *testing.T) {
	svc := &stubEscalationService{}
	w := NewEscalationWorker(EscalationWorkerConfig{
		SweepInterval: 10 * time.Millisecond,
		SweepTimeout:  time.Second,
	}, svc, zap.NewNop())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start() = nil error, want already-running error")
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&svc.sweeps) < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweeps = %d, want at least 2", svc.sweeps)
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// No sweeps after Stop returns.
	after := atomic.LoadInt32(&svc.sweeps)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&svc.sweeps); got != after {
		t.Errorf("sweeps advanced after Stop(): %d -> %d", after, got)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(zap.NewNop())

	svc := &stubEscalationService{}
	w := NewEscalationWorker(EscalationWorkerConfig{
		SweepInterval: time.Hour,
		SweepTimeout:  time.Second,
	}, svc, zap.NewNop())
	m.Register(w)

	if err := m.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if !m.IsRunning() {
		t.Error("IsRunning() = false after StartAll")
	}
	if err := m.StartAll(context.Background()); err == nil {
		t.Error("second StartAll() = nil error, want already-running error")
	}

	if err := m.StopAll(); err != nil {
		t.Fatalf("StopAll() error = %v", err)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true after StopAll")
	}
}
