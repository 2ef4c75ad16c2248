package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sliceFetch serves ints 1..total, recording every request.
type sliceFetch struct {
	mu    sync.Mutex
	total int
	err   error
	reqs  []int
}

func (s *sliceFetch) fetch(_ context.Context, _ int64, page, size int) (paging.Page[int], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, page)
	if s.err != nil {
		return paging.Page[int]{}, s.err
	}
	all := make([]int, s.total)
	for i := range all {
		all[i] = i + 1
	}
	return pageOf(all, page, size), nil
}

func (s *sliceFetch) requests() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.reqs...)
}

func newIntView(src *sliceFetch, rec *recorder) *View[int] {
	return NewView("ints", 5, src.fetch, rec, "Error fetching ints.", zap.NewNop())
}

func TestView_LoadReplacesItemsAndTotal(t *testing.T) {
	src := &sliceFetch{total: 12}
	rec := &recorder{}
	v := newIntView(src, rec)

	require.NoError(t, v.Load(context.Background(), 2))

	s := v.Snapshot()
	assert.Equal(t, []int{6, 7, 8, 9, 10}, s.Items)
	assert.Equal(t, 12, s.Total)
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, 3, s.PageCount)
	assert.True(t, s.HasPrev)
	assert.True(t, s.HasNext)
	assert.False(t, s.Loading)
	assert.Empty(t, rec.All())
}

func TestView_EmptyCollectionIsOnePage(t *testing.T) {
	src := &sliceFetch{total: 0}
	v := newIntView(src, &recorder{})

	require.NoError(t, v.Load(context.Background(), 1))

	s := v.Snapshot()
	assert.NotNil(t, s.Items)
	assert.Empty(t, s.Items)
	assert.Equal(t, 1, s.PageCount)
	assert.False(t, s.HasPrev)
	assert.False(t, s.HasNext)
}

func TestView_LoadFailureKeepsStateAndNotifiesOnce(t *testing.T) {
	src := &sliceFetch{total: 7}
	rec := &recorder{}
	v := newIntView(src, rec)
	ctx := context.Background()

	require.NoError(t, v.Load(ctx, 1))
	before := v.Snapshot()

	src.err = errBackend
	err := v.Load(ctx, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBackend))

	after := v.Snapshot()
	assert.Equal(t, before, after)
	assert.False(t, after.Loading)

	got := rec.All()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "Error fetching ints.", got[0].Title)
}

func TestView_NavigationGuards(t *testing.T) {
	src := &sliceFetch{total: 12}
	v := newIntView(src, &recorder{})
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, 1))

	ok, err := v.Prev(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "prev on page 1 is ignored")

	ok, err = v.GoTo(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok, "page beyond the last is ignored")

	ok, err = v.GoTo(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = v.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, v.Page())

	ok, err = v.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "next on the last page is ignored")

	assert.Equal(t, []int{1, 2, 3}, src.requests())
}

func TestView_ClampsAfterShrink(t *testing.T) {
	src := &sliceFetch{total: 11}
	v := newIntView(src, &recorder{})
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, 3))

	src.mu.Lock()
	src.total = 10
	src.mu.Unlock()

	require.NoError(t, v.Reload(ctx))

	s := v.Snapshot()
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, s.Items)
	assert.Equal(t, []int{3, 3, 2}, src.requests())
}

func TestView_ResetDiscardsAndRewinds(t *testing.T) {
	src := &sliceFetch{total: 12}
	v := newIntView(src, &recorder{})
	ctx := context.Background()
	require.NoError(t, v.Load(ctx, 2))

	v.Reset(9)

	s := v.Snapshot()
	assert.Empty(t, s.Items)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, int64(9), s.Scope)
	assert.Equal(t, []int{2}, src.requests(), "reset issues no request")
}

func TestView_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	rec := &recorder{}

	fetch := func(_ context.Context, scope int64, page, size int) (paging.Page[int], error) {
		if scope == 1 {
			close(entered)
			<-release
			return paging.Page[int]{}, errBackend
		}
		return paging.Page[int]{Items: []int{int(scope)}, Total: 1}, nil
	}
	v := NewView("ints", 5, fetch, rec, "Error fetching ints.", zap.NewNop())
	ctx := context.Background()

	v.Reset(1)
	done := make(chan error, 1)
	go func() { done <- v.Load(ctx, 1) }()
	<-entered

	v.Reset(2)
	require.NoError(t, v.Load(ctx, 1))

	close(release)
	assert.ErrorIs(t, <-done, ErrStale)

	s := v.Snapshot()
	assert.Equal(t, []int{2}, s.Items)
	assert.Equal(t, int64(2), s.Scope)
	assert.Empty(t, rec.All(), "a superseded failure sends no notification")
}

func TestView_CloseIgnoresLateResponses(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	rec := &recorder{}

	fetch := func(context.Context, int64, int, int) (paging.Page[int], error) {
		close(entered)
		<-release
		return paging.Page[int]{}, errBackend
	}
	v := NewView("ints", 5, fetch, rec, "Error fetching ints.", zap.NewNop())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- v.Load(ctx, 1) }()
	<-entered

	v.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.ErrorIs(t, v.Load(ctx, 1), ErrClosed)
	assert.Empty(t, rec.All())
	assert.False(t, v.Snapshot().Loading)
}

func TestView_LoadingVisibleWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	fetch := func(context.Context, int64, int, int) (paging.Page[int], error) {
		close(entered)
		<-release
		return paging.Page[int]{Items: []int{1}, Total: 1}, nil
	}
	v := NewView("ints", 5, fetch, &recorder{}, "x", zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background(), 1) }()
	<-entered

	assert.True(t, v.Snapshot().Loading)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, v.Snapshot().Loading)
}

func TestView_SnapshotIsACopy(t *testing.T) {
	src := &sliceFetch{total: 3}
	v := newIntView(src, &recorder{})
	require.NoError(t, v.Load(context.Background(), 1))

	s := v.Snapshot()
	s.Items[0] = 99

	assert.Equal(t, 1, v.Snapshot().Items[0])
}

func TestView_ShrinkThenFailedReloadStaysInRange(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, _ int64, page, size int) (paging.Page[int], error) {
		calls++
		switch calls {
		case 1:
			return paging.Page[int]{Items: []int{1, 2, 3, 4, 5}, Total: 15}, nil
		case 2:
			return paging.Page[int]{Items: nil, Total: 6}, nil
		default:
			return paging.Page[int]{}, errors.New("backend down")
		}
	}
	rec := &recorder{}
	v := NewView("ints", 5, fetch, rec, "Error fetching ints.", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, v.Load(ctx, 1))
	assert.Error(t, v.Load(ctx, 3), "the follow-up load of the last page fails")

	s := v.Snapshot()
	assert.Equal(t, 2, s.PageCount)
	assert.Equal(t, 2, s.Page, "current page is clamped to the new last page")
	assert.True(t, s.HasPrev)
	assert.False(t, s.HasNext)
	assert.False(t, s.Loading)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"Error fetching ints."}, rec.Titles())
}

func TestScopedView_IdleWithoutScope(t *testing.T) {
	src := &sliceFetch{total: 12}
	v := NewScopedView("scoped", 5, src.fetch, &recorder{}, "Error fetching ints.", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, v.Load(ctx, 1))
	ok, err := v.GoTo(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, src.requests(), "no request is issued without a scope")

	v.Reset(7)
	require.NoError(t, v.Load(ctx, 1))
	ok, err = v.GoTo(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	v.Reset(0)
	ok, err = v.GoTo(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "paging after the scope is cleared is ignored")
	assert.Equal(t, []int{1, 2}, src.requests())
}
