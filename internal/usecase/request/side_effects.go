package request

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"changectl/internal/bootstrap/logging"
	"changectl/internal/errs"
	"changectl/internal/ports"
)

// dispatcher is a bounded in-process queue for best-effort side effects.
// Tasks run off the request path under their own timeout, so a slow or hung
// downstream never delays the primary response. A full queue drops the task
// with a log line; there is no retry and no replay (at-most-once).
type sideEffectTask struct {
	id   string
	name string
	run  func(ctx context.Context) error
}

type dispatcher struct {
	tasks   chan sideEffectTask
	timeout time.Duration
	done    chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func newDispatcher(queueSize int, timeout time.Duration) *dispatcher {
	d := &dispatcher{
		tasks:   make(chan sideEffectTask, queueSize),
		timeout: timeout,
		done:    make(chan struct{}),
	}
	go d.worker()
	return d
}

func (d *dispatcher) worker() {
	defer close(d.done)

	for task := range d.tasks {
		taskCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		logCtx := logging.WithAttrs(
			taskCtx,
			slog.String("component", "request.side_effects"),
			slog.String("task_id", task.id),
			slog.String("task", task.name),
		)

		if err := task.run(logCtx); err != nil {
			logging.Warn(logCtx, "side effect failed, dropped", slog.Any("err", errs.Loggable(err)))
		}
		cancel()
	}
}

func (d *dispatcher) enqueue(ctx context.Context, name string, run func(ctx context.Context) error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logging.Warn(ctx, "side-effect queue closed, dropping task", slog.String("task", name))
		return
	}

	task := sideEffectTask{
		id:   uuid.NewString(),
		name: name,
		run:  run,
	}

	select {
	case d.tasks <- task:
	default:
		logging.Warn(ctx, "side-effect queue full, dropping task",
			slog.String("task_id", task.id),
			slog.String("task", name),
		)
	}
}

// close stops intake and waits for queued tasks to finish.
func (d *dispatcher) close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.tasks)
		<-d.done
	})
}

func (s *Service) enqueueSyncCreate(ctx context.Context, record ports.ChangeRequest) {
	if s.sync == nil {
		return
	}

	s.dispatcher.enqueue(ctx, "sync.create", func(taskCtx context.Context) error {
		_, err := s.sync.CreateChangeRequest(taskCtx, record)
		return err
	})
}

func (s *Service) enqueueSyncStatus(ctx context.Context, requestID string, status string) {
	if s.sync == nil {
		return
	}

	s.dispatcher.enqueue(ctx, "sync.status", func(taskCtx context.Context) error {
		return s.sync.UpdateChangeRequest(taskCtx, requestID, map[string]any{"status": status})
	})
}

func (s *Service) enqueueNotification(ctx context.Context, record ports.ChangeRequest) {
	if s.notifier == nil {
		return
	}

	recipient := strings.TrimSpace(s.notifyRecipient)
	if recipient == "" {
		recipient = record.RequestorEmail
	}
	subject := notificationSubject(record)
	body := notificationBody(record)

	s.dispatcher.enqueue(ctx, "notify.submitted", func(taskCtx context.Context) error {
		return s.notifier.SendNotification(taskCtx, recipient, subject, body)
	})
}
