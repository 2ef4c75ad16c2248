package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/domain/models"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend serves pages out of in-memory slices and moves clients
// between the unmatched list and the pairings on assign/unassign.
type fakeBackend struct {
	mu      sync.Mutex
	clients []models.Person
	helpers map[int64][]models.Person
	pairs   []models.Pairing
	calls   []string

	failClients  error
	failHelpers  error
	failPairs    error
	failAssign   error
	failUnassign error

	// hooks run before the fake answers, outside its lock
	onClients func(page int)
	onHelpers func(clientID int64, page int)
	onAssign  func(clientID, helperID int64)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{helpers: make(map[int64][]models.Person)}
}

func pageOf[T any](all []T, page, size int) paging.Page[T] {
	start := int(paging.Skip(page, size))
	if start > len(all) {
		start = len(all)
	}
	end := min(start+size, len(all))
	return paging.Page[T]{Items: append([]T(nil), all[start:end]...), Total: len(all)}
}

func (f *fakeBackend) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ResetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeBackend) ListUnmatchedClients(ctx context.Context, page, size int) (paging.Page[models.Person], error) {
	f.record("clients:%d:%d", page, size)
	if f.onClients != nil {
		f.onClients(page)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failClients != nil {
		return paging.Page[models.Person]{}, f.failClients
	}
	return pageOf(f.clients, page, size), nil
}

func (f *fakeBackend) ListPotentialHelpers(ctx context.Context, clientID int64, page, size int) (paging.Page[models.Person], error) {
	f.record("helpers:%d:%d:%d", clientID, page, size)
	if f.onHelpers != nil {
		f.onHelpers(clientID, page)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHelpers != nil {
		return paging.Page[models.Person]{}, f.failHelpers
	}
	return pageOf(f.helpers[clientID], page, size), nil
}

func (f *fakeBackend) ListMatchedPairs(ctx context.Context, page, size int) (paging.Page[models.Pairing], error) {
	f.record("pairs:%d:%d", page, size)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPairs != nil {
		return paging.Page[models.Pairing]{}, f.failPairs
	}
	return pageOf(f.pairs, page, size), nil
}

func (f *fakeBackend) Assign(ctx context.Context, clientID, helperID int64) error {
	f.record("assign:%d:%d", clientID, helperID)
	if f.onAssign != nil {
		f.onAssign(clientID, helperID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAssign != nil {
		return f.failAssign
	}
	for i, c := range f.clients {
		if c.ID == clientID {
			f.clients = append(f.clients[:i:i], f.clients[i+1:]...)
			f.pairs = append([]models.Pairing{{
				ID:       int64(len(f.pairs) + 1),
				ClientID: clientID,
				HelperID: helperID,
			}}, f.pairs...)
			return nil
		}
	}
	return fmt.Errorf("client %d already matched", clientID)
}

func (f *fakeBackend) Unassign(ctx context.Context, clientID, helperID int64) error {
	f.record("unassign:%d:%d", clientID, helperID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUnassign != nil {
		return f.failUnassign
	}
	for i, p := range f.pairs {
		if p.ClientID == clientID && p.HelperID == helperID {
			f.pairs = append(f.pairs[:i:i], f.pairs[i+1:]...)
			f.clients = append(f.clients, person(clientID, models.RoleClient))
			return nil
		}
	}
	return fmt.Errorf("no pairing %d/%d", clientID, helperID)
}

// recorder is a Notifier that keeps everything it is sent.
type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
}

func (r *recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.Title
	}
	return out
}

func (r *recorder) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.got...)
}

func person(id int64, role string) models.Person {
	return models.Person{
		ID:        id,
		FirstName: fmt.Sprintf("First%d", id),
		LastName:  fmt.Sprintf("Last%d", id),
		CityName:  "Springfield",
		Role:      role,
	}
}

func people(role string, ids ...int64) []models.Person {
	out := make([]models.Person, len(ids))
	for i, id := range ids {
		out[i] = person(id, role)
	}
	return out
}

func idRange(from, n int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = from + int64(i)
	}
	return out
}

func ids(ps []models.Person) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
