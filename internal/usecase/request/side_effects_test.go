package request

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsQueuedTasks(t *testing.T) {
	d := newDispatcher(8, time.Second)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		d.enqueue(context.Background(), "test.task", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	d.close()

	if got := ran.Load(); got != 5 {
		t.Fatalf("ran %d tasks, want 5", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := newDispatcher(1, time.Second)

	block := make(chan struct{})
	started := make(chan struct{})
	d.enqueue(context.Background(), "test.block", func(context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started

	// Worker is busy; one task fits the buffer, the rest are dropped.
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		d.enqueue(context.Background(), "test.task", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	close(block)
	d.close()

	if got := ran.Load(); got != 1 {
		t.Fatalf("ran %d overflow tasks, want exactly the buffered one", got)
	}
}

func TestDispatcherTaskTimeout(t *testing.T) {
	d := newDispatcher(1, 20*time.Millisecond)

	expired := make(chan bool, 1)
	d.enqueue(context.Background(), "test.slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			expired <- true
		case <-time.After(2 * time.Second):
			expired <- false
		}
		return ctx.Err()
	})

	d.close()

	if !<-expired {
		t.Fatalf("task context did not expire under the per-task timeout")
	}
}

func TestDispatcherEnqueueAfterCloseIsNoOp(t *testing.T) {
	d := newDispatcher(1, time.Second)
	d.close()

	var ran atomic.Int32
	d.enqueue(context.Background(), "test.late", func(context.Context) error {
		ran.Add(1)
		return nil
	})

	if got := ran.Load(); got != 0 {
		t.Fatalf("task ran after close")
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := newDispatcher(1, time.Second)
	d.close()
	d.close()
}

func TestDispatcherFailingTaskDoesNotStopWorker(t *testing.T) {
	d := newDispatcher(4, time.Second)

	var ran atomic.Int32
	d.enqueue(context.Background(), "test.fail", func(context.Context) error {
		return context.DeadlineExceeded
	})
	d.enqueue(context.Background(), "test.after", func(context.Context) error {
		ran.Add(1)
		return nil
	})

	d.close()

	if got := ran.Load(); got != 1 {
		t.Fatalf("task after failure did not run")
	}
}
