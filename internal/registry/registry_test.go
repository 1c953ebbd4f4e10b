package registry

import (
	"sync"
	"testing"

	"github.com/leefowlercu/chatwatcher/internal/telegram"
)

func newTestRegistry() *Registry {
	return New([]Target{
		{ID: 111, RawID: -100111, Title: "Alpha Signals", Kind: telegram.ChatKindChannel},
		{ID: 222, RawID: 222, Title: "Beta Chat", Kind: telegram.ChatKindGroup},
	})
}

func TestLookup(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name   string
		rawID  int64
		wantID uint64
		wantOK bool
	}{
		{"marked form of channel", -100111, 111, true},
		{"bare form of channel", 111, 111, true},
		{"group by positive id", 222, 222, true},
		{"group by negative id", -222, 222, true},
		{"unknown chat", 999, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Lookup(tt.rawID)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%d) ok = %v, want %v", tt.rawID, ok, tt.wantOK)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("Lookup(%d).ID = %d, want %d", tt.rawID, got.ID, tt.wantID)
			}
		})
	}
}

func TestSeed(t *testing.T) {
	r := newTestRegistry()

	if r.IsSeeded(111) {
		t.Fatal("cursor seeded before Seed call")
	}
	if !r.Seed(111, 50) {
		t.Fatal("first Seed returned false")
	}
	if r.Seed(111, 75) {
		t.Error("second Seed succeeded; cursor must seed only once")
	}
	if got, ok := r.LastSeen(111); !ok || got != 50 {
		t.Errorf("LastSeen = %d, %v; want 50, true", got, ok)
	}
	if r.Seed(999, 1) {
		t.Error("Seed succeeded for unknown chat")
	}
}

func TestAdvance_Ratchet(t *testing.T) {
	r := newTestRegistry()
	r.Seed(111, 0)

	// The cursor after any sequence of calls equals the maximum id seen,
	// regardless of order.
	ids := []uint64{5, 3, 9, 9, 1, 7}
	for _, id := range ids {
		r.Advance(111, id)
	}
	if got, _ := r.LastSeen(111); got != 9 {
		t.Errorf("cursor = %d, want 9", got)
	}

	if r.Advance(111, 9) {
		t.Error("duplicate id advanced the cursor")
	}
	if r.Advance(111, 4) {
		t.Error("out-of-order low id advanced the cursor")
	}
	if !r.Advance(111, 10) {
		t.Error("higher id did not advance the cursor")
	}
}

func TestAdvance_SeedsUnseededCursor(t *testing.T) {
	r := newTestRegistry()

	// A push event can land before the poller seeds the chat.
	if !r.Advance(222, 7) {
		t.Fatal("Advance on unseeded cursor returned false")
	}
	if got, ok := r.LastSeen(222); !ok || got != 7 {
		t.Errorf("LastSeen = %d, %v; want 7, true", got, ok)
	}
	if r.Seed(222, 99) {
		t.Error("Seed overrode a cursor set by Advance")
	}
}

func TestAdvance_Concurrent(t *testing.T) {
	r := newTestRegistry()
	r.Seed(111, 0)

	const (
		writers = 8
		perGoro = 500
	)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= perGoro; i++ {
				r.Advance(111, uint64(w*perGoro+i))
			}
		}(w)
	}
	wg.Wait()

	want := uint64(writers * perGoro)
	if got, _ := r.LastSeen(111); got != want {
		t.Errorf("cursor after concurrent ratchet = %d, want %d", got, want)
	}
}

func TestNew_CollapsesDuplicateTargets(t *testing.T) {
	r := New([]Target{
		{ID: 111, RawID: -100111, Title: "First"},
		{ID: 111, RawID: 111, Title: "Second"},
	})

	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}
	got, _ := r.Get(111)
	if got.Title != "First" {
		t.Errorf("duplicate target did not keep first entry, got %q", got.Title)
	}
}

func TestTargets_SortedByTitle(t *testing.T) {
	r := newTestRegistry()
	ts := r.Targets()
	if len(ts) != 2 {
		t.Fatalf("Targets len = %d, want 2", len(ts))
	}
	if ts[0].Title != "Alpha Signals" || ts[1].Title != "Beta Chat" {
		t.Errorf("Targets not sorted by title: %q, %q", ts[0].Title, ts[1].Title)
	}
}
