package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"go.uber.org/zap"
)

// FetchFunc loads one page of a view. scope narrows the collection (the
// selected client for helper candidates) and is zero for unscoped views.
type FetchFunc[T any] func(ctx context.Context, scope int64, page, size int) (paging.Page[T], error)

// View is one paged panel: the current page of items plus its loading state.
type View[T any] struct {
	name    string
	size    int
	fetch   FetchFunc[T]
	notify  Notifier
	failMsg string
	log     *zap.Logger

	mu      sync.Mutex
	items   []T
	page    int
	total   int
	loading bool
	scope   int64
	scoped  bool   // loads need a non-zero scope
	seq     uint64 // bumped by every Load, Reset and Close
	closed  bool
}

// Snapshot is a copy of a view's state, safe to render while the view changes.
type Snapshot[T any] struct {
	Items     []T
	Page      int
	Total     int
	PageCount int
	HasPrev   bool
	HasNext   bool
	Loading   bool
	Scope     int64
}

// PrevPage is the page "previous" leads to.
func (s Snapshot[T]) PrevPage() int {
	if s.HasPrev {
		return s.Page - 1
	}
	return s.Page
}

// NextPage is the page "next" leads to.
func (s Snapshot[T]) NextPage() int {
	if s.HasNext {
		return s.Page + 1
	}
	return s.Page
}

// NewView builds an empty view on page 1. failMsg is the notification sent
// when a load fails.
func NewView[T any](name string, size int, fetch FetchFunc[T], n Notifier, failMsg string, logger *zap.Logger) *View[T] {
	if size < 1 {
		size = paging.PageSize
	}
	return &View[T]{
		name:    name,
		size:    size,
		fetch:   fetch,
		notify:  n,
		failMsg: failMsg,
		log:     logger,
		page:    1,
	}
}

// NewScopedView builds a view that only loads under a non-zero scope. With
// scope 0 it stays empty and paging is ignored.
func NewScopedView[T any](name string, size int, fetch FetchFunc[T], n Notifier, failMsg string, logger *zap.Logger) *View[T] {
	v := NewView(name, size, fetch, n, failMsg, logger)
	v.scoped = true
	return v
}

// Size returns the fixed page size.
func (v *View[T]) Size() int { return v.size }

// Page returns the current page number.
func (v *View[T]) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// PageCount returns max(1, ceil(total/size)).
func (v *View[T]) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return paging.PageCount(v.total, v.size)
}

// Snapshot returns a copy of the current state.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	nav := paging.ComputeNav(v.page, v.total, v.size)
	items := make([]T, len(v.items))
	copy(items, v.items)

	return Snapshot[T]{
		Items:     items,
		Page:      v.page,
		Total:     v.total,
		PageCount: nav.PageCount,
		HasPrev:   nav.HasPrev,
		HasNext:   nav.HasNext,
		Loading:   v.loading,
		Scope:     v.scope,
	}
}

// Load fetches page for the view's current scope and, if no newer request
// was issued meanwhile, replaces the items and total.
//
// On failure the previous items and total are kept and one error
// notification is sent. Loading is cleared on every path that still owns
// the view. A response that lands beyond the last page (the collection
// shrank) moves the view to the last page and reloads it. A scoped view
// without a scope issues no request.
func (v *View[T]) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.scoped && v.scope == 0 {
		v.mu.Unlock()
		return nil
	}
	v.seq++
	seq, scope := v.seq, v.scope
	v.loading = true
	v.mu.Unlock()

	res, err := v.fetch(ctx, scope, page, v.size)

	v.mu.Lock()
	if v.closed || seq != v.seq {
		v.mu.Unlock()
		v.log.Debug("discarding superseded response",
			zap.String("view", v.name),
			zap.Int("page", page),
			zap.Int64("scope", scope))
		return ErrStale
	}
	v.loading = false

	if err != nil {
		v.mu.Unlock()
		v.log.Warn("view load failed",
			zap.String("view", v.name),
			zap.Int("page", page),
			zap.Int64("scope", scope),
			zap.Error(err))
		v.notify.Notify(ctx, notify.Error(v.failMsg))
		return fmt.Errorf("load %s page %d: %w", v.name, page, err)
	}

	items := res.Items
	if items == nil {
		items = []T{}
	}
	v.items = items
	v.total = max(res.Total, 0)
	last := paging.PageCount(v.total, v.size)
	v.page = paging.Clamp(page, last)
	v.mu.Unlock()

	if page > last {
		return v.Load(ctx, last)
	}
	return nil
}

// Reload fetches the current page again.
func (v *View[T]) Reload(ctx context.Context) error {
	return v.Load(ctx, v.Page())
}

// GoTo loads page if it lies in [1, PageCount]. Out-of-range targets are
// ignored and report false without issuing a request.
func (v *View[T]) GoTo(ctx context.Context, page int) (bool, error) {
	v.mu.Lock()
	ok := !v.closed && !(v.scoped && v.scope == 0) &&
		paging.InRange(page, paging.PageCount(v.total, v.size))
	v.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, v.Load(ctx, page)
}

// Next moves one page forward; it is ignored on the last page.
func (v *View[T]) Next(ctx context.Context) (bool, error) {
	return v.GoTo(ctx, v.Page()+1)
}

// Prev moves one page back; it is ignored on page 1.
func (v *View[T]) Prev(ctx context.Context) (bool, error) {
	return v.GoTo(ctx, v.Page()-1)
}

// Reset empties the view, rewinds it to page 1 under a new scope and drops
// any response still in flight. It issues no request.
func (v *View[T]) Reset(scope int64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	v.items = nil
	v.total = 0
	v.page = 1
	v.loading = false
	v.scope = scope
}

// Close detaches the view: responses still in flight are ignored and later
// loads are refused.
func (v *View[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	v.closed = true
	v.loading = false
}

// ignoreStale folds ErrStale into success for callers that only care about
// real failures.
func ignoreStale(err error) error {
	if errors.Is(err, ErrStale) {
		return nil
	}
	return err
}
