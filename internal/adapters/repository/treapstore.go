package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: pts DESC, then totalWin DESC, then playerID ASC. "less" means
// ranks earlier, so in-order traversal yields the leaderboard from best to
// worst. Players equal on pts and totalWin share a dense rank.

type key struct {
	pts      int
	totalWin int
	id       string
}

func keyOf(p model.PlayerStats) key {
	return key{pts: p.Pts, totalWin: p.TotalWin, id: p.PlayerID}
}

// less returns true if a should appear before b.
func less(a, b key) bool {
	if a.pts != b.pts {
		return a.pts > b.pts
	}
	if a.totalWin != b.totalWin {
		return a.totalWin > b.totalWin
	}
	return a.id < b.id
}

// tied reports whether a and b share a rank.
func tied(a, b key) bool {
	return a.pts == b.pts && a.totalWin == b.totalWin
}

// treap node
type node struct {
	key   key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, k key, prio uint64) *node {
	if n == nil {
		return &node{key: k, prio: prio, size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, k, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectTopN appends up to limit keys in rank order.
func collectTopN(n *node, limit int, out *[]key) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.key)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// scopeSnapshot is immutable once published.
type scopeSnapshot struct {
	root      *node
	byID      map[string]model.PlayerStats
	rankByID  map[string]int
	ordered   []model.PlayerStats
	updatedAt time.Time
}

func buildSnapshot(population []model.PlayerStats, at time.Time) (*scopeSnapshot, error) {
	snap := &scopeSnapshot{
		byID:      make(map[string]model.PlayerStats, len(population)),
		updatedAt: at,
	}
	for _, p := range population {
		if p.PlayerID == "" {
			return nil, fmt.Errorf("%w: empty playerId", ErrInvalidRecord)
		}
		if _, dup := snap.byID[p.PlayerID]; dup {
			return nil, fmt.Errorf("%w: duplicate playerId %s", ErrInvalidRecord, p.PlayerID)
		}
		snap.byID[p.PlayerID] = p
		snap.root = insert(snap.root, keyOf(p), rand.Uint64())
	}

	keys := make([]key, 0, len(population))
	collectTopN(snap.root, len(population), &keys)

	snap.ordered = make([]model.PlayerStats, len(keys))
	snap.rankByID = make(map[string]int, len(keys))
	rank := 0
	for i, k := range keys {
		if i == 0 || !tied(keys[i-1], k) {
			rank++
		}
		snap.rankByID[k.id] = rank
		snap.ordered[i] = snap.byID[k.id]
	}
	return snap, nil
}

type TreapStore struct {
	mu     sync.RWMutex
	scopes map[string]*scopeSnapshot
	now    func() time.Time
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		scopes: make(map[string]*scopeSnapshot),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace builds the new snapshot outside the lock and swaps it in.
func (s *TreapStore) Replace(_ context.Context, scope string, population []model.PlayerStats) error {
	snap, err := buildSnapshot(population, s.now())
	if err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_record")
		return err
	}

	s.mu.Lock()
	s.scopes[scope] = snap
	scopes := len(s.scopes)
	s.mu.Unlock()

	metrics.UpdateStorePlayers(model.ScopeLabel(scope), len(snap.ordered))
	metrics.UpdateStoreScopes(scopes)
	return nil
}

func (s *TreapStore) snapshot(scope string) (*scopeSnapshot, error) {
	s.mu.RLock()
	snap, ok := s.scopes[scope]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: scope %s", ErrNotFound, model.ScopeLabel(scope))
	}
	return snap, nil
}

func (s *TreapStore) Population(_ context.Context, scope string) ([]model.PlayerStats, error) {
	snap, err := s.snapshot(scope)
	if err != nil {
		return nil, err
	}
	out := make([]model.PlayerStats, len(snap.ordered))
	copy(out, snap.ordered)
	return out, nil
}

func (s *TreapStore) Get(_ context.Context, scope, playerID string) (model.PlayerStats, error) {
	snap, err := s.snapshot(scope)
	if err != nil {
		return model.PlayerStats{}, err
	}
	p, ok := snap.byID[playerID]
	if !ok {
		return model.PlayerStats{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	return p, nil
}

func (s *TreapStore) Rank(_ context.Context, scope, playerID string) (Entry, error) {
	snap, err := s.snapshot(scope)
	if err != nil {
		return Entry{}, err
	}
	p, ok := snap.byID[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	return Entry{Rank: snap.rankByID[playerID], Stats: p}, nil
}

func (s *TreapStore) TopN(_ context.Context, scope string, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap, err := s.snapshot(scope)
	if err != nil {
		return nil, err
	}

	keys := make([]key, 0, min(n, len(snap.ordered)))
	collectTopN(snap.root, n, &keys)

	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Rank: snap.rankByID[k.id], Stats: snap.byID[k.id]}
	}
	return out, nil
}

func (s *TreapStore) Scopes(_ context.Context) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		out = append(out, scope)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *TreapStore) Count(_ context.Context, scope string) int {
	snap, err := s.snapshot(scope)
	if err != nil {
		return 0
	}
	return len(snap.ordered)
}

func (s *TreapStore) UpdatedAt(_ context.Context, scope string) (time.Time, error) {
	snap, err := s.snapshot(scope)
	if err != nil {
		return time.Time{}, err
	}
	return snap.updatedAt, nil
}
