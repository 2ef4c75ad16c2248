package coordinator

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory builds the coordinator for a new desk.
type Factory func(deskID string) *Coordinator

type deskEntry struct {
	coord    *Coordinator
	lastUsed time.Time
}

// Registry holds one Coordinator per operator desk.
type Registry struct {
	factory Factory
	log     *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	desks map[string]*deskEntry
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		log:     logger,
		now:     time.Now,
		desks:   make(map[string]*deskEntry),
	}
}

// Get returns the desk's coordinator, creating it on first use. created
// reports whether this call built it, in which case the caller should Open it.
func (r *Registry) Get(deskID string) (c *Coordinator, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.desks[deskID]; ok {
		e.lastUsed = r.now()
		return e.coord, false
	}

	c = r.factory(deskID)
	r.desks[deskID] = &deskEntry{coord: c, lastUsed: r.now()}
	r.log.Debug("desk opened", zap.String("desk_id", deskID))
	return c, true
}

// Sweep closes and evicts every desk idle for longer than maxIdle and
// returns their ids.
func (r *Registry) Sweep(maxIdle time.Duration) []string {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*deskEntry
	var ids []string
	for id, e := range r.desks {
		if e.lastUsed.Before(cutoff) {
			idle = append(idle, e)
			ids = append(ids, id)
			delete(r.desks, id)
		}
	}
	r.mu.Unlock()

	for _, e := range idle {
		e.coord.Close()
	}
	return ids
}

// Len returns the number of open desks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.desks)
}

// CloseAll closes and forgets every desk.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	desks := r.desks
	r.desks = make(map[string]*deskEntry)
	r.mu.Unlock()

	for _, e := range desks {
		e.coord.Close()
	}
}
