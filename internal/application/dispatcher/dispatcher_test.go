package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/expensehub/approval-engine/internal/domain/event"
)

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var order []string
	d.SubscribeNamed(event.TypeWorkflowApproved, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeWorkflowApproved, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	evt := event.NewEvent(event.TypeWorkflowApproved, 1, 1, nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handler order = %v, want [first second]", order)
	}
}

func TestDispatch_StopsOnFirstError(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	handlerErr := errors.New("boom")
	var secondRan bool

	d.SubscribeNamed(event.TypeWorkflowRejected, "failing", func(ctx context.Context, evt *event.Event) error {
		return handlerErr
	})
	d.SubscribeNamed(event.TypeWorkflowRejected, "after", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeWorkflowRejected, 1, 1, nil))
	if !errors.Is(err, handlerErr) {
		t.Errorf("Dispatch() error = %v, want wrapped handler error", err)
	}
	if secondRan {
		t.Error("handler after a failing one still ran")
	}
}

func TestDispatch_RecoversFromPanic(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	d.Subscribe(event.TypeDecisionRecorded, func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeDecisionRecorded, 1, 1, nil))
	if err == nil {
		t.Fatal("Dispatch() error = nil, want panic converted to error")
	}
}

func TestDispatchAsync_CompletesBeforeClose(t *testing.T) {
	d := NewDispatcher()

	var count atomic.Int32
	d.Subscribe(event.TypeWorkflowEscalated, func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeWorkflowEscalated, int64(i), 1, nil))
	}

	// Close waits for all in-flight async handlers.
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := count.Load(); got != 5 {
		t.Errorf("async handler invocations = %d, want 5", got)
	}
}

func TestDispatch_AfterCloseFails(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeExpenseSubmitted, 1, 1, nil)); err == nil {
		t.Error("Dispatch() after Close() = nil, want error")
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() = nil, want error")
	}
}
