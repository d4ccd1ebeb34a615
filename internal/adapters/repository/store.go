// Package repository holds the latest population snapshot of each scope,
// ranked for display.
package repository

import (
	"context"
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

// Entry is a ranked player within a scope.
type Entry struct {
	Rank  int
	Stats model.PlayerStats
}

// Store provides read/write access to per-scope populations. A scope is a
// series id, or model.GlobalScope for all players.
type Store interface {
	// Replace swaps the whole population of scope.
	Replace(ctx context.Context, scope string, population []model.PlayerStats) error

	// Population returns the scope's players in rank order.
	// Returns ErrNotFound if the scope was never loaded.
	Population(ctx context.Context, scope string) ([]model.PlayerStats, error)

	// Get returns one player's stats within scope.
	Get(ctx context.Context, scope, playerID string) (model.PlayerStats, error)

	// Rank returns the player's dense rank within scope.
	Rank(ctx context.Context, scope, playerID string) (Entry, error)

	// TopN returns the first n entries of scope.
	TopN(ctx context.Context, scope string, n int) ([]Entry, error)

	// Scopes lists the loaded scopes.
	Scopes(ctx context.Context) []string

	// Count returns the number of players in scope, 0 if unknown.
	Count(ctx context.Context, scope string) int

	// UpdatedAt reports when scope was last replaced.
	UpdatedAt(ctx context.Context, scope string) (time.Time, error)
}
