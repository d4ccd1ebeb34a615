// Package model contains domain models passed between layers.
// Field names mirror the JSON shapes served by the statistics API.
package model

import "time"

// Zone is the standing band computed upstream for a player in a series.
type Zone string

// Known zones.
const (
	ZoneNone     Zone = "none"
	ZoneChampion Zone = "champion"
	ZoneSafe     Zone = "safe"
	ZoneLast     Zone = "last"
)

// Team identifies one side of a game.
type Team string

// Teams.
const (
	TeamBlue Team = "teamBlue"
	TeamRed  Team = "teamRed"
)

// Valid reports whether t is one of the two teams.
func (t Team) Valid() bool {
	return t == TeamBlue || t == TeamRed
}

// Player is a registered competitor.
type Player struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Series is a set of games played by a fixed group of participants.
type Series struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Participants []Player  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Game is one recorded match within a series.
type Game struct {
	ID         string    `json:"_id"`
	SeriesID   string    `json:"seriesId"`
	GameNumber int       `json:"gameNumber"`
	TeamBlue   []Player  `json:"teamBlue"`
	TeamRed    []Player  `json:"teamRed"`
	Winner     Team      `json:"winner"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PlayerStats is a player's aggregate statistics, either across all series
// or within one. Produced upstream and treated as read-only here.
type PlayerStats struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Color    string `json:"color"`

	TotalWin            int     `json:"totalWin"`
	HighestWinStreak    int     `json:"highestWinStreak"`
	HighestLoseStreak   int     `json:"highestLoseStreak"`
	FirstLossGameNumber int     `json:"firstLossGameNumber"`
	Pts                 int     `json:"pts"`
	TotalGames          int     `json:"totalGames"`
	WinRate             float64 `json:"winRate"` // percentage, 0..100

	MaxPossiblePts *int `json:"maxPossiblePts,omitempty"`
	Zone           Zone `json:"zone,omitempty"`
}

// CombinationMember is the compact player shape used inside combinations.
type CombinationMember struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Color   string `json:"color"`
}

// PlayerCombination is the record of a group of 2 or 3 players on the same team.
type PlayerCombination struct {
	Players    []CombinationMember `json:"players"`
	Wins       int                 `json:"wins"`
	Losses     int                 `json:"losses"`
	TotalGames int                 `json:"totalGames"`
	WinRate    float64             `json:"winRate"`
}

// ProgressionPoint is a player's running totals after one game.
type ProgressionPoint struct {
	GameNumber int `json:"gameNumber"`
	Pts        int `json:"pts"`
	Win        int `json:"win"`
	WS         int `json:"ws"`
	LS         int `json:"ls"`
}

// PtsProgression is a player's points history over a series.
type PtsProgression struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Color       string             `json:"color"`
	Progression []ProgressionPoint `json:"progression"`
}
