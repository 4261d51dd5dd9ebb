package session

import (
	"context"
	"errors"
	"time"

	"github.com/vzahanych/outfit-wizard/internal/outfit"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"github.com/vzahanych/outfit-wizard/internal/wizard"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TaskKind string

const (
	TaskLocation TaskKind = "location"
	TaskWeather  TaskKind = "weather"
	TaskOutfit   TaskKind = "outfit"
)

// Task is one background load bound to the stage visit that asked for it.
type Task struct {
	ID        string
	Kind      TaskKind
	SessionID string
	Ticket    wizard.Ticket
	Location  string
	Weather   weather.Snapshot
	Parent    trace.SpanContext
}

type Worker struct {
	manager  *Manager
	workerID int
	logger   *zap.Logger
}

func NewWorker(manager *Manager, workerID int) *Worker {
	return &Worker{
		manager:  manager,
		workerID: workerID,
		logger:   manager.logger.With(zap.Int("worker_id", workerID)),
	}
}

func (w *Worker) Start(ctx context.Context) {
	defer w.manager.workerWg.Done()

	w.logger.Debug("Worker started")

	for {
		select {
		case task, ok := <-w.manager.taskQueue:
			if !ok {
				w.logger.Info("Task queue closed, worker stopping")
				return
			}

			w.logger.Debug("Processing task",
				zap.String("task_id", task.ID),
				zap.String("kind", string(task.Kind)))
			w.processTask(ctx, task)

		case <-w.manager.shutdownCh:
			w.logger.Debug("Shutdown signal received, worker stopping")
			return
		case <-ctx.Done():
			w.logger.Debug("Context cancelled, worker stopping")
			return
		}
	}
}

func (w *Worker) processTask(ctx context.Context, task *Task) {
	if task.Parent.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, task.Parent)
	}
	ctx, span := w.manager.tele.GetTracer().Start(ctx, "session.processTask")
	defer span.End()

	span.SetAttributes(
		attribute.String("task_id", task.ID),
		attribute.String("kind", string(task.Kind)),
		attribute.Int("stage", int(task.Ticket.Stage)),
		attribute.Int64("epoch", int64(task.Ticket.Epoch)),
		attribute.Int("worker_id", w.workerID),
	)

	var err error
	switch task.Kind {
	case TaskLocation:
		err = w.finishLocation(ctx, task)
	case TaskWeather:
		err = w.finishWeather(ctx, task)
	case TaskOutfit:
		err = w.finishOutfit(ctx, task)
	}

	m := w.manager
	switch {
	case errors.Is(err, wizard.ErrStaleTicket), errors.Is(err, ErrSessionNotFound):
		w.logger.Debug("Result discarded",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
			zap.Error(err))
		if m.metrics != nil {
			m.metrics.RecordStaleResult(ctx, string(task.Kind))
		}
		return
	case err != nil:
		w.logger.Error("Task failed",
			zap.String("task_id", task.ID),
			zap.String("kind", string(task.Kind)),
			zap.Error(err))
		m.tele.RecordError(ctx, err, map[string]interface{}{"kind": task.Kind})
	default:
		w.logger.Debug("Task completed", zap.String("task_id", task.ID))
	}
	if m.metrics != nil {
		m.metrics.RecordTask(ctx, string(task.Kind), err == nil)
	}
}

func (w *Worker) finishLocation(ctx context.Context, task *Task) error {
	if err := sleep(ctx, w.manager.opts.LocationDelay); err != nil {
		return err
	}
	return w.deliver(ctx, task, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		return nil, c.SubmitLocation(task.Ticket, task.Location)
	})
}

func (w *Worker) finishWeather(ctx context.Context, task *Task) error {
	snapshot, fetchErr := w.manager.weather.Current(ctx, task.Location)
	err := w.deliver(ctx, task, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		rec.Local.Loading = false
		if fetchErr != nil {
			rec.Local.NoticeKey = "notice.weather.failed"
			return nil, nil
		}
		rec.Local.Weather = &snapshot
		return nil, nil
	})
	if err != nil {
		return err
	}
	return fetchErr
}

func (w *Worker) finishOutfit(ctx context.Context, task *Task) error {
	if err := sleep(ctx, w.manager.opts.OutfitDelay); err != nil {
		return err
	}
	result := outfit.Decide(task.Weather)
	return w.deliver(ctx, task, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		rec.Local.Loading = false
		rec.Local.Outfit = &result
		return nil, nil
	})
}

// deliver applies fn only if the session is still in the visit that queued
// the task.
func (w *Worker) deliver(ctx context.Context, task *Task, fn mutation) error {
	var stale bool
	_, err := w.manager.update(ctx, task.SessionID, false, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		if !c.Accepts(task.Ticket) || rec.Local.Ticket != task.Ticket {
			stale = true
			return nil, wizard.ErrStaleTicket
		}
		return fn(rec, c)
	})
	if stale {
		return wizard.ErrStaleTicket
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
