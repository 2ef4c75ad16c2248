package coordinator

import (
	"context"
	"sync"

	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures a Coordinator.
type Options struct {
	PageSize int
	Logger   *zap.Logger
}

// Coordinator owns one desk's three views and its client selection.
type Coordinator struct {
	backend  Backend
	notifier Notifier
	log      *zap.Logger

	clients *View[models.Person]
	helpers *View[models.Person]
	pairs   *View[models.Pairing]

	mu       sync.Mutex
	selected int64 // 0 when no client is selected
	closed   bool
}

// State is a render-ready copy of a desk.
type State struct {
	Selected int64
	Clients  Snapshot[models.Person]
	Helpers  Snapshot[models.Person]
	Pairs    Snapshot[models.Pairing]
}

// HasSelection reports whether a client is selected.
func (s State) HasSelection() bool { return s.Selected != 0 }

// New builds a Coordinator with empty views. Nothing is loaded until Open.
func New(b Backend, n Notifier, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := opts.PageSize
	if size < 1 {
		size = paging.PageSize
	}

	c := &Coordinator{backend: b, notifier: n, log: logger}

	c.clients = NewView("unmatched_clients", size,
		func(ctx context.Context, _ int64, page, size int) (paging.Page[models.Person], error) {
			return b.ListUnmatchedClients(ctx, page, size)
		}, n, msgFetchClientsFailed, logger)

	c.helpers = NewScopedView("potential_helpers", size,
		func(ctx context.Context, clientID int64, page, size int) (paging.Page[models.Person], error) {
			return b.ListPotentialHelpers(ctx, clientID, page, size)
		}, n, msgFetchHelpersFailed, logger)

	c.pairs = NewView("matched_pairs", size,
		func(ctx context.Context, _ int64, page, size int) (paging.Page[models.Pairing], error) {
			return b.ListMatchedPairs(ctx, page, size)
		}, n, msgFetchPairsFailed, logger)

	return c
}

// Clients returns the unmatched-clients view.
func (c *Coordinator) Clients() *View[models.Person] { return c.clients }

// Helpers returns the potential-helpers view.
func (c *Coordinator) Helpers() *View[models.Person] { return c.helpers }

// Pairs returns the matched-pairs view.
func (c *Coordinator) Pairs() *View[models.Pairing] { return c.pairs }

// Selected returns the selected client id, or 0.
func (c *Coordinator) Selected() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Snapshot returns a copy of the whole desk.
func (c *Coordinator) Snapshot() State {
	return State{
		Selected: c.Selected(),
		Clients:  c.clients.Snapshot(),
		Helpers:  c.helpers.Snapshot(),
		Pairs:    c.pairs.Snapshot(),
	}
}

// Open (re)loads the desk at the pages it is already on: the unmatched
// clients and pairings, plus the helper candidates when a client is
// selected. Failures are reported through the notifier.
func (c *Coordinator) Open(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return ignoreStale(c.clients.Reload(ctx)) })
	g.Go(func() error { return ignoreStale(c.pairs.Reload(ctx)) })
	if c.Selected() != 0 {
		g.Go(func() error { return ignoreStale(c.helpers.Reload(ctx)) })
	}
	_ = g.Wait()
}

// SelectClient makes clientID the selection and loads its first page of
// helper candidates. clientID 0 clears the selection and the candidates
// without a request.
func (c *Coordinator) SelectClient(ctx context.Context, clientID int64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.selected = clientID
	// Reset under c.mu so a concurrent select cannot interleave its scope.
	c.helpers.Reset(clientID)
	c.mu.Unlock()

	if clientID == 0 {
		return nil
	}
	return ignoreStale(c.helpers.Load(ctx, 1))
}

// Assign pairs helperID with the selected client.
//
// It is refused when no client is selected or clientID is not the
// selection. On success the helper candidates and the selection are cleared
// and both lists are reloaded at their current pages. On failure nothing
// changes apart from one error notification.
func (c *Coordinator) Assign(ctx context.Context, clientID, helperID int64) error {
	c.mu.Lock()
	closed, selected := c.closed, c.selected
	c.mu.Unlock()
	switch {
	case closed:
		return ErrClosed
	case selected == 0:
		return ErrNoSelection
	case selected != clientID:
		return ErrSelectionMismatch
	}

	if err := c.backend.Assign(ctx, clientID, helperID); err != nil {
		c.log.Warn("assign failed",
			zap.Int64("client_id", clientID),
			zap.Int64("helper_id", helperID),
			zap.Error(err))
		c.notifier.Notify(ctx, notify.Error(msgAssignFailed))
		return err
	}

	c.log.Info("helper assigned",
		zap.Int64("client_id", clientID),
		zap.Int64("helper_id", helperID))
	c.notifier.Notify(ctx, notify.Success(msgAssigned))

	c.mu.Lock()
	// The operator may have moved on to another client while the request
	// was in flight; only collapse the panel that belonged to this one.
	if c.selected == clientID {
		c.selected = 0
		c.helpers.Reset(0)
	}
	c.mu.Unlock()

	c.refreshLists(ctx)
	return nil
}

// Unassign removes the pairing of clientID and helperID. On success both
// lists are reloaded at their current pages.
func (c *Coordinator) Unassign(ctx context.Context, clientID, helperID int64) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := c.backend.Unassign(ctx, clientID, helperID); err != nil {
		c.log.Warn("unassign failed",
			zap.Int64("client_id", clientID),
			zap.Int64("helper_id", helperID),
			zap.Error(err))
		c.notifier.Notify(ctx, notify.Error(msgUnassignFailed))
		return err
	}

	c.log.Info("helper unassigned",
		zap.Int64("client_id", clientID),
		zap.Int64("helper_id", helperID))
	c.notifier.Notify(ctx, notify.Success(msgUnassigned))

	c.refreshLists(ctx)
	return nil
}

// PageClients moves the unmatched-clients view to page.
func (c *Coordinator) PageClients(ctx context.Context, page int) (bool, error) {
	ok, err := c.clients.GoTo(ctx, page)
	return ok, ignoreStale(err)
}

// PageHelpers moves the potential-helpers view to page. It is ignored when
// no client is selected.
func (c *Coordinator) PageHelpers(ctx context.Context, page int) (bool, error) {
	if c.Selected() == 0 {
		return false, nil
	}
	ok, err := c.helpers.GoTo(ctx, page)
	return ok, ignoreStale(err)
}

// PagePairs moves the matched-pairs view to page.
func (c *Coordinator) PagePairs(ctx context.Context, page int) (bool, error) {
	ok, err := c.pairs.GoTo(ctx, page)
	return ok, ignoreStale(err)
}

// Close detaches the coordinator; responses still in flight are dropped.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.selected = 0
	c.mu.Unlock()

	c.clients.Close()
	c.helpers.Close()
	c.pairs.Close()
}

// refreshLists reloads the two views a mutation can change, in parallel.
// Load failures have already been reported by the views.
func (c *Coordinator) refreshLists(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return ignoreStale(c.clients.Reload(ctx)) })
	g.Go(func() error { return ignoreStale(c.pairs.Reload(ctx)) })
	_ = g.Wait()
}
