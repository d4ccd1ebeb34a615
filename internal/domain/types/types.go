// Package types contains response shapes shared by the HTTP API and the CLI.
package types

import (
	"time"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
)

// Entry is one leaderboard row: the display rank plus the player's stats.
type Entry struct {
	Rank int `json:"rank"`
	model.PlayerStats
}

// Leaderboard is the top of one scope's population.
type Leaderboard struct {
	Scope     string    `json:"scope"`
	UpdatedAt time.Time `json:"updatedAt"`
	Total     int       `json:"total"`
	Entries   []Entry   `json:"entries"`
}

// Profile is a player's radar profile within a scope.
type Profile struct {
	PlayerID string           `json:"playerId"`
	Name     string           `json:"name"`
	Color    string           `json:"color"`
	Picture  string           `json:"picture"`
	Scope    string           `json:"scope"`
	Metrics  []profile.Metric `json:"metrics"`
}

// Degenerate counts the metrics that cannot be plotted.
func (p Profile) Degenerate() int {
	n := 0
	for _, m := range p.Metrics {
		if !m.IsFinite() {
			n++
		}
	}
	return n
}
