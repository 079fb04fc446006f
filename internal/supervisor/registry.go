package supervisor

import (
	"sync"
	"time"
)

// Registry is the single source of truth for which instances have a live
// process. An instance id is present exactly while a start has succeeded and
// neither a stop nor a detected exit has completed.
type Registry struct {
	mu        sync.Mutex
	processes map[string]*Handle
}

// HandleInfo is a point-in-time copy of a registry entry, safe to use
// outside the registry lock.
type HandleInfo struct {
	InstanceID string
	PID        int
	StartedAt  time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		processes: make(map[string]*Handle),
	}
}

// Register inserts the handle, failing with ErrAlreadyRunning when the id is
// already present.
func (r *Registry) Register(id string, h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processes[id]; exists {
		return ErrAlreadyRunning
	}
	r.processes[id] = h
	return nil
}

// Lookup returns the live handle for id, if present.
func (r *Registry) Lookup(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.processes[id]
	return h, ok
}

// Contains reports whether id has a live process.
func (r *Registry) Contains(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Remove deletes the entry for id and reports whether it was present.
// Removing an absent id is a no-op; the exit monitor and the stop sequence
// both call Remove and the first writer wins.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.processes[id]
	delete(r.processes, id)
	return ok
}

// Snapshot copies out pid/start-time pairs for every live instance. The live
// handles never leave the lock's protection.
func (r *Registry) Snapshot() []HandleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]HandleInfo, 0, len(r.processes))
	for id, h := range r.processes {
		infos = append(infos, HandleInfo{
			InstanceID: id,
			PID:        h.PID(),
			StartedAt:  h.StartedAt,
		})
	}
	return infos
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processes)
}
