// File: internal/infra/worker/pool_test.go
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(3)
	p.Start(ctx)
	defer p.Stop()

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		task := func(context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			return nil
		}
		if err := p.Submit(ctx, task); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	wg.Wait()
	if got := atomic.LoadInt32(&ran); got != 20 {
		t.Errorf("expected 20 tasks to run, got %d", got)
	}
}

func TestPool_SubmitRejectsNilTask(t *testing.T) {
	p := NewPool(1)
	if err := p.Submit(context.Background(), nil); err == nil {
		t.Error("expected an error for a nil task")
	}
}

func TestPool_SubmitBlocksUntilCancelled(t *testing.T) {
	// Never start the pool so the queue fills up and Submit has to wait.
	p := NewPool(1)
	filler := func(context.Context) error { return nil }
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		err := p.Submit(ctx, filler)
		cancel()
		if err != nil {
			break // queue is full
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Submit(ctx, filler) }()

	select {
	case err := <-done:
		t.Fatalf("Submit returned before cancellation: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Submit did not unblock after cancellation")
	}
}
