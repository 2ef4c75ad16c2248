package counterstore_test

import (
	"sync"
	"testing"

	counterstore "github.com/dalemusser/matchdesk/internal/app/store/counters"
	"github.com/dalemusser/matchdesk/internal/testutil"
)

func TestStore_NextStartsAtOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := store.Current(ctx, counterstore.Persons)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur != 0 {
		t.Errorf("Current before use: got %d, want 0", cur)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := store.Next(ctx, counterstore.Persons)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if got != want {
			t.Errorf("Next: got %d, want %d", got, want)
		}
	}
}

func TestStore_SequencesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Next(ctx, counterstore.Persons); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, err := store.Next(ctx, counterstore.Persons); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	got, err := store.Next(ctx, counterstore.Pairings)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != 1 {
		t.Errorf("pairings sequence: got %d, want 1", got)
	}
}

func TestStore_NextConcurrentIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	const n = 20
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Next(ctx, "concurrent")
			if err != nil {
				t.Errorf("Next failed: %v", err)
				return
			}
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("got %d unique ids, want %d", len(seen), n)
	}
}
