package job

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// executor is the type-erased execution interface stored in the
// registry; typed tasks are wrapped so different payload types can
// share one worker.
type executor interface {
	Execute(ctx context.Context, payload json.RawMessage) error
}

type registry struct {
	mu        sync.RWMutex
	executors map[string]executor
}

func newRegistry() *registry {
	return &registry{executors: make(map[string]executor)}
}

func (r *registry) register(name string, ex executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = ex
}

func (r *registry) get(name string) (executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[name]
	return ex, ok
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}

// taskWrapper adapts a typed task to the executor interface,
// decoding the JSON payload into P before calling Handle.
type taskWrapper[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}] struct {
	task T
}

func (w *taskWrapper[P, T]) Execute(ctx context.Context, raw json.RawMessage) error {
	var payload P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return w.task.Handle(ctx, payload)
}
