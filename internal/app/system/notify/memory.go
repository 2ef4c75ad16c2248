package notify

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process Queue. It is the default when no Redis URL
// is configured.
type MemoryQueue struct {
	mu    sync.Mutex
	desks map[string][]Notification
}

// NewMemoryQueue returns an empty MemoryQueue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{desks: make(map[string][]Notification)}
}

// Push appends n to the desk's backlog.
func (q *MemoryQueue) Push(_ context.Context, deskID string, n Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := append(q.desks[deskID], n)
	if len(list) > maxPerDesk {
		list = list[len(list)-maxPerDesk:]
	}
	q.desks[deskID] = list
	return nil
}

// Drain returns and clears the desk's backlog in push order.
func (q *MemoryQueue) Drain(_ context.Context, deskID string) ([]Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.desks[deskID]
	delete(q.desks, deskID)
	return list, nil
}

// Forget drops a desk's backlog without returning it.
func (q *MemoryQueue) Forget(deskID string) {
	q.mu.Lock()
	delete(q.desks, deskID)
	q.mu.Unlock()
}
