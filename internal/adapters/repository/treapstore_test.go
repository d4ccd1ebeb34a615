package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

func stats(id string, pts, wins int) model.PlayerStats {
	return model.PlayerStats{PlayerID: id, Name: id, Pts: pts, TotalWin: wins, TotalGames: wins + 2}
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if count := store.Count(ctx, model.GlobalScope); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Population(ctx, model.GlobalScope); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown scope, got %v", err)
	}

	if err := store.Replace(ctx, model.GlobalScope, []model.PlayerStats{stats("p1", 8, 6)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx, model.GlobalScope); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, model.GlobalScope, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Stats.Pts != 8 {
		t.Errorf("unexpected entry %+v", entry)
	}

	got, err := store.Get(ctx, model.GlobalScope, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "p1" {
		t.Errorf("expected p1, got %s", got.Name)
	}
	if _, err := store.Get(ctx, model.GlobalScope, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTreapStore_Ordering(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	population := []model.PlayerStats{
		stats("d", 4, 2),
		stats("a", 8, 6),
		stats("c", 8, 5),
		stats("b", 8, 6),
		stats("e", -2, 0),
	}
	if err := store.Replace(ctx, "s1", population); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.TopN(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"a", "b", "c", "d", "e"}
	wantRanks := []int{1, 1, 2, 3, 4}
	if len(entries) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(entries))
	}
	for i, e := range entries {
		if e.Stats.PlayerID != wantIDs[i] || e.Rank != wantRanks[i] {
			t.Errorf("position %d: expected %s rank %d, got %s rank %d", i, wantIDs[i], wantRanks[i], e.Stats.PlayerID, e.Rank)
		}
	}

	pop, err := store.Population(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range pop {
		if p.PlayerID != wantIDs[i] {
			t.Errorf("population order %d: expected %s, got %s", i, wantIDs[i], p.PlayerID)
		}
	}
}

func TestTreapStore_TopNLimits(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Replace(ctx, model.GlobalScope, []model.PlayerStats{stats("a", 3, 1), stats("b", 2, 1), stats("c", 1, 1)})

	if _, err := store.TopN(ctx, model.GlobalScope, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	entries, err := store.TopN(ctx, model.GlobalScope, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[1].Stats.PlayerID != "b" {
		t.Errorf("unexpected top 2: %+v", entries)
	}
	if _, err := store.TopN(ctx, "missing", 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTreapStore_ReplaceSwapsWholeScope(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewTreapStore(WithClock(func() time.Time { return now }))

	_ = store.Replace(ctx, "s1", []model.PlayerStats{stats("a", 1, 1), stats("b", 2, 1)})
	now = now.Add(time.Minute)
	_ = store.Replace(ctx, "s1", []model.PlayerStats{stats("c", 5, 3)})

	if count := store.Count(ctx, "s1"); count != 1 {
		t.Errorf("expected 1 player after replace, got %d", count)
	}
	if _, err := store.Get(ctx, "s1", "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old player should be gone, got %v", err)
	}
	at, err := store.UpdatedAt(ctx, "s1")
	if err != nil || !at.Equal(now) {
		t.Errorf("expected UpdatedAt %v, got %v (%v)", now, at, err)
	}
}

func TestTreapStore_InvalidRecords(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Replace(ctx, "s1", []model.PlayerStats{stats("a", 1, 1)})

	if err := store.Replace(ctx, "s1", []model.PlayerStats{stats("", 1, 1)}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for empty id, got %v", err)
	}
	if err := store.Replace(ctx, "s1", []model.PlayerStats{stats("x", 1, 1), stats("x", 2, 2)}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord for duplicate id, got %v", err)
	}
	if _, err := store.Get(ctx, "s1", "a"); err != nil {
		t.Errorf("failed replace must keep the previous snapshot: %v", err)
	}
}

func TestTreapStore_Scopes(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Replace(ctx, "s2", nil)
	_ = store.Replace(ctx, model.GlobalScope, nil)
	_ = store.Replace(ctx, "s1", nil)

	got := store.Scopes(ctx)
	want := []string{"", "s1", "s2"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %q, got %q", want, got)
	}
	if pop, err := store.Population(ctx, "s1"); err != nil || len(pop) != 0 {
		t.Errorf("empty scope should load with no players, got %v %v", pop, err)
	}
}

func TestTreapStore_PopulationIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Replace(ctx, "s1", []model.PlayerStats{stats("a", 1, 1)})

	pop, _ := store.Population(ctx, "s1")
	pop[0].Pts = 999

	again, _ := store.Population(ctx, "s1")
	if again[0].Pts != 1 {
		t.Errorf("caller mutation leaked into the store")
	}
}

func TestTreap_InOrderMatchesLess(t *testing.T) {
	var root *node
	keys := make([]key, 500)
	for i := range keys {
		keys[i] = key{pts: rand.IntN(40) - 10, totalWin: rand.IntN(20), id: fmt.Sprintf("p%03d", i)}
		root = insert(root, keys[i], rand.Uint64())
	}
	if nsize(root) != len(keys) {
		t.Fatalf("expected size %d, got %d", len(keys), nsize(root))
	}

	var out []key
	collectTopN(root, len(keys), &out)
	for i := 1; i < len(out); i++ {
		if less(out[i], out[i-1]) {
			t.Fatalf("in-order traversal out of order at %d: %+v before %+v", i, out[i-1], out[i])
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Replace(ctx, model.GlobalScope, []model.PlayerStats{stats("a", 1, 1)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Replace(ctx, model.GlobalScope, []model.PlayerStats{stats("a", i, 1), stats("b", i+1, 1)})
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := store.TopN(ctx, model.GlobalScope, 5); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if _, err := store.Rank(ctx, model.GlobalScope, "a"); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
