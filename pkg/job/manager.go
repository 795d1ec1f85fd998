package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"

	"github.com/boardkit/boardkit/pkg/logger"
)

const defaultMaxWorkers = 10

// Manager enqueues and processes the engine's background tasks.
// Jobs may be enqueued before Start; they run once the manager starts.
type Manager struct {
	client   *river.Client[pgx.Tx]
	registry *registry
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager creates a manager on the shared database pool.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &config{registry: newRegistry()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Discard()
	}
	if cfg.maxWorkers == 0 {
		cfg.maxWorkers = defaultMaxWorkers
	}

	var periodic []*river.PeriodicJob
	for _, sched := range cfg.schedules {
		parsed, err := parseCron(sched.expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q for task %s", ErrInvalidSchedule, sched.expr, sched.name)
		}
		name := sched.name
		periodic = append(periodic, river.NewPeriodicJob(
			parsed,
			func() (river.JobArgs, *river.InsertOpts) {
				return &taskArgs{TaskName: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
		cfg.registry.register(sched.name, scheduledExecutor{handler: sched.handler})
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &taskWorker{registry: cfg.registry, logger: cfg.logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.maxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{client: client, registry: cfg.registry, logger: cfg.logger}, nil
}

// Enqueue queues a task for background execution.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any) error {
	if _, ok := m.registry.get(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
		raw = data
	}

	_, err := m.client.Insert(ctx, &taskArgs{TaskName: name, Payload: raw}, nil)
	if err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

// Start begins processing queued and periodic jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	m.started = true
	m.logger.Info("job manager started", slog.Int("tasks", m.registry.size()))
	return nil
}

// Stop drains in-flight jobs and shuts the manager down.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// taskArgs is the single River job shape all tasks share: a task name
// plus its JSON payload, dispatched through the registry.
type taskArgs struct {
	TaskName string          `json:"task_name"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "board:task" }

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	registry *registry
	logger   *slog.Logger
}

func (w *taskWorker) Work(ctx context.Context, job *river.Job[taskArgs]) error {
	ex, ok := w.registry.get(job.Args.TaskName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, job.Args.TaskName)
	}

	if err := ex.Execute(ctx, job.Args.Payload); err != nil {
		w.logger.ErrorContext(ctx, "task failed",
			slog.String("task", job.Args.TaskName),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

type scheduledExecutor struct {
	handler func(context.Context) error
}

func (e scheduledExecutor) Execute(ctx context.Context, _ json.RawMessage) error {
	return e.handler(ctx)
}

type cronSchedule struct {
	inner cron.Schedule
}

func (s cronSchedule) Next(t time.Time) time.Time {
	return s.inner.Next(t)
}

func parseCron(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	parsed, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return cronSchedule{inner: parsed}, nil
}
