package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// registry tracks the cancel handle of every live worker. It is owned by the
// orchestrator; terminal workers are swept as they finish.
type registry struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newRegistry() *registry {
	return &registry{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

func (r *registry) register(id uuid.UUID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[id] = cancel
}

// cancel stops the worker for id. It reports whether a live worker existed.
func (r *registry) cancel(id uuid.UUID) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// sweep drops a finished worker's handle without firing it.
func (r *registry) sweep(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, id)
}

func (r *registry) live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
