package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
}

type schedule struct {
	handler func(context.Context) error
	name    string
	expr    string
}

// Option configures the job manager.
type Option func(*config)

// WithTask registers a task handler. The payload type is inferred from
// the Handle signature and decoded from JSON before each run.
//
// Example:
//
//	type SendNotification struct{ notifier *subscribe.Notifier }
//
//	func (t *SendNotification) Name() string { return "send_notification" }
//	func (t *SendNotification) Handle(ctx context.Context, p NotifyPayload) error {
//	    return t.notifier.NotifyReply(ctx, p.ReplyID)
//	}
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), &taskWrapper[P, T]{task: task})
	}
}

// WithScheduledTask registers a periodic task. Schedule() returns a
// 5-field cron expression (min hour day month weekday).
//
// Example:
//
//	type ReconcileCounts struct{ board *boardkit.Board }
//
//	func (t *ReconcileCounts) Name() string     { return "reconcile_counts" }
//	func (t *ReconcileCounts) Schedule() string { return "15 3 * * *" }
//	func (t *ReconcileCounts) Handle(ctx context.Context) error { ... }
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name:    task.Name(),
			expr:    task.Schedule(),
			handler: task.Handle,
		})
	}
}

// WithLogger sets the logger for job processing. Defaults to discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers bounds concurrent job processing. Default: 10.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
