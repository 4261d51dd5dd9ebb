// Package session keeps one wizard per browser session and runs the stage
// loaders in the background.
package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vzahanych/outfit-wizard/internal/config"
	"github.com/vzahanych/outfit-wizard/internal/geo"
	"github.com/vzahanych/outfit-wizard/internal/stage"
	"github.com/vzahanych/outfit-wizard/internal/weather"
	"github.com/vzahanych/outfit-wizard/internal/wizard"
	"github.com/vzahanych/outfit-wizard/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrNotReady        = errors.New("stage result not ready")
	ErrBusy            = errors.New("stage is still loading")
	ErrSessionNotFound = errors.New("session not found")
)

// WeatherProvider is satisfied by *weather.Provider.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (weather.Snapshot, error)
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordTransition(ctx context.Context, stage string)
	RecordStaleResult(ctx context.Context, kind string)
	RecordTask(ctx context.Context, kind string, success bool)
}

type Options struct {
	TTL           time.Duration
	Workers       int
	QueueSize     int
	LocationDelay time.Duration
	OutfitDelay   time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TTL:           time.Duration(cfg.Session.TTL) * time.Second,
		Workers:       cfg.Session.Workers,
		QueueSize:     cfg.Session.QueueSize,
		LocationDelay: time.Duration(cfg.Wizard.LocationDelayMS) * time.Millisecond,
		OutfitDelay:   time.Duration(cfg.Wizard.OutfitDelayMS) * time.Millisecond,
	}
}

const lockStripes = 64

// mutation changes a record through its controller and may schedule tasks.
type mutation func(rec *Record, c *wizard.Controller) ([]*Task, error)

// Manager is the only writer of session records. Mutations of one session
// are serialized on a per-session lock.
type Manager struct {
	store   Store
	weather WeatherProvider
	opts    Options
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics MetricsRecorder
	now     func() time.Time

	locks [lockStripes]sync.Mutex

	taskQueue  chan *Task
	shutdownCh chan struct{}
	workerWg   sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewManager(store Store, provider WeatherProvider, opts Options, logger *zap.Logger, tele *telemetry.Telemetry) *Manager {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	return &Manager{
		store:      store,
		weather:    provider,
		opts:       opts,
		logger:     logger.With(zap.String("component", "session.manager")),
		tele:       tele,
		now:        time.Now,
		taskQueue:  make(chan *Task, opts.QueueSize),
		shutdownCh: make(chan struct{}),
	}
}

// SetMetricsRecorder sets the metrics recorder for the manager
func (m *Manager) SetMetricsRecorder(metrics MetricsRecorder) {
	m.metrics = metrics
}

// Start launches the loader workers. They stop on Stop or when ctx ends.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		for i := 1; i <= m.opts.Workers; i++ {
			m.workerWg.Add(1)
			go NewWorker(m, i).Start(ctx)
		}
		m.logger.Info("Session workers started", zap.Int("workers", m.opts.Workers))
	})
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.shutdownCh)
	})
	m.workerWg.Wait()
}

// Ready checks the session store.
func (m *Manager) Ready(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// Get returns the session. Every action creates a fresh session when id is
// empty or unknown.
func (m *Manager) Get(ctx context.Context, id string) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		return nil, nil
	})
}

// SubmitLocation handles typed input (delayed) and preset clicks (immediate).
func (m *Manager) SubmitLocation(ctx context.Context, id, location string, immediate bool) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		if err := requireStage(c, wizard.StageLocation); err != nil {
			return nil, err
		}
		if rec.Local.Loading {
			return nil, ErrBusy
		}

		loc, err := stage.NormalizeLocation(location)
		if err != nil {
			rec.Local.NoticeKey = "notice.location.empty"
			return nil, err
		}
		rec.Local.NoticeKey = ""

		if immediate || m.opts.LocationDelay <= 0 {
			return nil, c.SubmitLocation(c.Ticket(), loc)
		}

		rec.Local.Loading = true
		return []*Task{m.newTask(ctx, TaskLocation, rec.ID, c.Ticket(), func(t *Task) {
			t.Location = loc
		})}, nil
	})
}

// SubmitCurrentLocation applies the outcome of a device geolocation query.
// Failures leave the wizard on the location stage with a notice.
func (m *Manager) SubmitCurrentLocation(ctx context.Context, id string, report geo.Report) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		if err := requireStage(c, wizard.StageLocation); err != nil {
			return nil, err
		}
		if rec.Local.Loading {
			return nil, ErrBusy
		}

		loc, err := geo.Resolve(report)
		if err != nil {
			if errors.Is(err, geo.ErrUnsupported) {
				rec.Local.NoticeKey = "notice.geo.unsupported"
			} else {
				rec.Local.NoticeKey = "notice.geo.denied"
			}
			m.logger.Info("Geolocation failed", zap.String("session_id", rec.ID), zap.Error(err))
			return nil, err
		}
		return nil, c.SubmitLocation(c.Ticket(), loc)
	})
}

func (m *Manager) ConfirmWeather(ctx context.Context, id string) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		if err := requireStage(c, wizard.StageWeather); err != nil {
			return nil, err
		}
		if rec.Local.Weather == nil {
			return nil, ErrNotReady
		}
		return nil, c.SubmitWeather(rec.Local.Ticket, *rec.Local.Weather)
	})
}

func (m *Manager) ConfirmOutfit(ctx context.Context, id string) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		if err := requireStage(c, wizard.StageOutfit); err != nil {
			return nil, err
		}
		if rec.Local.Outfit == nil {
			return nil, ErrNotReady
		}
		return nil, c.SubmitOutfit(rec.Local.Ticket, *rec.Local.Outfit)
	})
}

// SelectBottomColor stores the choice in the colors stage only; it is lost
// as soon as the stage is left.
func (m *Manager) SelectBottomColor(ctx context.Context, id, key string) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		if err := requireStage(c, wizard.StageColors); err != nil {
			return nil, err
		}
		rec.Local.BottomColor = key
		return nil, nil
	})
}

func (m *Manager) Back(ctx context.Context, id string) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		return nil, c.Back()
	})
}

func (m *Manager) Reset(ctx context.Context, id string) (Record, error) {
	return m.update(ctx, id, true, func(rec *Record, c *wizard.Controller) ([]*Task, error) {
		c.Reset()
		return nil, nil
	})
}

func requireStage(c *wizard.Controller, want wizard.Stage) error {
	if c.Stage() != want {
		return fmt.Errorf("%w: want %s, current %s", wizard.ErrWrongStage, want, c.Stage())
	}
	return nil
}

// lock serializes work on one session. Sessions share a fixed set of
// striped mutexes so the lock table never grows.
func (m *Manager) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &m.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// update loads (or creates) the record, runs fn, persists the result and
// queues any tasks once the session lock is released.
func (m *Manager) update(ctx context.Context, id string, create bool, fn mutation) (Record, error) {
	rec, tasks, err := m.apply(ctx, id, create, fn)
	for _, task := range tasks {
		m.enqueue(task)
	}
	return rec, err
}

func (m *Manager) apply(ctx context.Context, id string, create bool, fn mutation) (Record, []*Task, error) {
	if id == "" {
		if !create {
			return Record{}, nil, ErrSessionNotFound
		}
		id = uuid.New().String()
	}

	unlock := m.lock(id)
	defer func() { unlock() }()

	rec, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return Record{}, nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		if !create {
			return Record{}, nil, ErrSessionNotFound
		}
		// Unknown ids are never adopted; the caller gets a new one.
		fresh := m.newRecord()
		if fresh.ID != id {
			unlock()
			unlock = m.lock(fresh.ID)
		}
		rec = fresh
		m.logger.Debug("Session created", zap.String("session_id", rec.ID))
	}

	c := wizard.Restore(rec.Wizard)
	before := c.Ticket()

	tasks, fnErr := fn(&rec, c)

	if c.Ticket() != before {
		tasks = append(tasks, m.enter(ctx, &rec, c)...)
	} else {
		rec.Wizard = c.State()
	}
	rec.UpdatedAt = m.now().UTC()

	if err := m.store.Save(ctx, rec, m.opts.TTL); err != nil {
		return Record{}, nil, fmt.Errorf("save session: %w", err)
	}

	return rec, tasks, fnErr
}

// enter starts a new stage visit and schedules the stage's loader.
func (m *Manager) enter(ctx context.Context, rec *Record, c *wizard.Controller) []*Task {
	rec.Wizard = c.State()
	rec.Local = stage.Fresh(c.Ticket())

	if m.metrics != nil {
		m.metrics.RecordTransition(ctx, c.Stage().String())
	}
	m.logger.Debug("Stage entered",
		zap.String("session_id", rec.ID),
		zap.String("stage", c.Stage().String()),
		zap.Uint64("epoch", c.Ticket().Epoch))

	switch c.Stage() {
	case wizard.StageWeather:
		rec.Local.Loading = true
		location := rec.Wizard.Location
		return []*Task{m.newTask(ctx, TaskWeather, rec.ID, c.Ticket(), func(t *Task) {
			t.Location = location
		})}
	case wizard.StageOutfit:
		rec.Local.Loading = true
		snapshot := *rec.Wizard.Weather
		return []*Task{m.newTask(ctx, TaskOutfit, rec.ID, c.Ticket(), func(t *Task) {
			t.Weather = snapshot
		})}
	default:
		return nil
	}
}

func (m *Manager) newRecord() Record {
	c := wizard.New()
	return Record{
		ID:     uuid.New().String(),
		Wizard: c.State(),
		Local:  stage.Fresh(c.Ticket()),
	}
}

func (m *Manager) newTask(ctx context.Context, kind TaskKind, sessionID string, ticket wizard.Ticket, fill func(*Task)) *Task {
	t := &Task{
		ID:        uuid.New().String(),
		Kind:      kind,
		SessionID: sessionID,
		Ticket:    ticket,
		Parent:    trace.SpanContextFromContext(ctx),
	}
	if fill != nil {
		fill(t)
	}
	return t
}

// enqueue never blocks the caller: workers enqueue follow-up tasks too, so a
// full queue is drained by a goroutine instead.
func (m *Manager) enqueue(task *Task) {
	select {
	case m.taskQueue <- task:
		return
	default:
	}

	m.logger.Warn("Task queue full, deferring task",
		zap.String("task_id", task.ID),
		zap.String("kind", string(task.Kind)))
	go func() {
		select {
		case m.taskQueue <- task:
		case <-m.shutdownCh:
			m.logger.Warn("Task dropped during shutdown",
				zap.String("task_id", task.ID),
				zap.String("kind", string(task.Kind)))
		}
	}()
}
