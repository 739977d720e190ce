// Package tasks tracks asynchronous work dispatched by the HTTP layer.
// Records live for the life of the process; there is no persistence and no
// eviction, matching the dispatch-and-poll contract of the API.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/personaprd/personaprd/internal/logging"
)

// Status is the lifecycle state of one task.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is a snapshot of one task. Result is only meaningful when the
// status is completed; Err only when failed.
type Record[R any] struct {
	ID        string
	Status    Status
	Result    R
	Err       string
	StartedAt time.Time
	EndedAt   time.Time
}

// Registry tracks tasks of one kind. Separate registries form disjoint id
// namespaces: a pipeline task id is never valid against the PRD registry.
type Registry[R any] struct {
	mu      sync.RWMutex
	records map[string]*Record[R]
	kind    string
	log     *logging.Logger
}

// NewRegistry returns an empty registry. kind labels log lines and panic
// reports ("pipeline", "prd").
func NewRegistry[R any](kind string, log *logging.Logger) *Registry[R] {
	return &Registry[R]{
		records: make(map[string]*Record[R]),
		kind:    kind,
		log:     log.With("component", "tasks", "kind", kind),
	}
}

// Dispatch registers a new running task and runs fn on its own goroutine,
// detached from the caller's request context. The returned id is immediately
// pollable. A panic inside fn fails the task instead of crashing the
// process.
func (r *Registry[R]) Dispatch(fn func(ctx context.Context) (R, error)) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.records[id] = &Record[R]{ID: id, Status: StatusRunning, StartedAt: time.Now()}
	r.mu.Unlock()

	r.log.Info("task dispatched", "task_id", id)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("task panicked", "task_id", id, "panic", rec)
				r.fail(id, fmt.Sprintf("%s task panicked: %v", r.kind, rec))
			}
		}()
		result, err := fn(context.Background())
		if err != nil {
			r.log.Error("task failed", "task_id", id, "error", err)
			r.fail(id, err.Error())
			return
		}
		r.complete(id, result)
		r.log.Info("task completed", "task_id", id)
	}()
	return id
}

// Get returns a snapshot of the task, or false if the id is unknown.
func (r *Registry[R]) Get(id string) (Record[R], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record[R]{}, false
	}
	return *rec, true
}

// complete moves a running task to completed. Terminal states are final: a
// task that already ended is left untouched.
func (r *Registry[R]) complete(id string, result R) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != StatusRunning {
		return
	}
	rec.Status = StatusCompleted
	rec.Result = result
	rec.EndedAt = time.Now()
}

func (r *Registry[R]) fail(id string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != StatusRunning {
		return
	}
	rec.Status = StatusFailed
	rec.Err = msg
	rec.EndedAt = time.Now()
}
