package job

import "errors"

var (
	// ErrUnknownTask is returned when a task name has no registered
	// handler.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrInvalidPayload is returned when a payload cannot be decoded
	// into the task's type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrAlreadyStarted is returned by Start on a running manager.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned by Stop on a stopped manager.
	ErrNotStarted = errors.New("job: not started")

	// ErrPoolRequired is returned when no database pool is provided.
	ErrPoolRequired = errors.New("job: pool is required")

	// ErrInvalidSchedule is returned for unparseable cron expressions.
	ErrInvalidSchedule = errors.New("job: invalid cron schedule")
)
