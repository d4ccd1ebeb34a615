// Package profile turns a player's aggregate statistics into a six-axis radar
// profile scaled against a population.
//
// Wins/Game, Dominance and Consistency are scaled against the population
// maximum only; Stability and Efficiency are scaled over the full min-max
// range because both can sit below the baseline. Win Rate passes through.
// Values are never clamped: a zero-width range yields NaN or ±Inf and the
// caller decides how to present it.
package profile

import (
	"fmt"
	"math"

	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
)

// FullMark is the top of every axis.
const FullMark = 100

// Axis labels, in plotting order.
const (
	WinRate     = "Win Rate"
	WinsPerGame = "Wins/Game"
	Dominance   = "Dominance"
	Consistency = "Consistency"
	Stability   = "Stability"
	Efficiency  = "Efficiency"
)

// Labels lists the axes in the order Normalize emits them.
var Labels = [...]string{WinRate, WinsPerGame, Dominance, Consistency, Stability, Efficiency}

// Sentinel floors and ceilings applied to the population bounds.
const (
	maxFloor             = 1.0
	minStabilityCeiling  = -1.0
	minEfficiencyCeiling = 0.0
)

// Derived holds the per-player ratios the profile is built from.
type Derived struct {
	WinsPerGame     float64
	Dominance       float64
	StreakStability float64 // may be negative
	Efficiency      float64
}

// Derive computes the helper ratios for one player. Players without games
// (or without wins, for Efficiency) get zeros instead of a division by zero.
func Derive(p model.PlayerStats) Derived {
	var d Derived
	if p.TotalGames > 0 {
		games := float64(p.TotalGames)
		d.WinsPerGame = float64(p.TotalWin) / games
		d.Dominance = float64(p.TotalWin) * float64(p.HighestWinStreak) / games
		d.StreakStability = float64(p.HighestWinStreak-p.HighestLoseStreak) / games
	}
	if p.TotalWin > 0 {
		d.Efficiency = float64(p.Pts) / float64(p.TotalWin)
	}
	return d
}

// Bounds are the population-wide scaling limits.
type Bounds struct {
	MaxWinsPerGame     float64
	MaxDominance       float64
	MaxStreakStability float64
	MinStreakStability float64
	MaxEfficiency      float64
	MinEfficiency      float64
	MaxLoseStreak      float64
}

// ComputeBounds scans the population once. It fails on an empty population
// rather than returning the bare sentinels. The floors and ceilings keep every
// range at least 1 wide, so Profile only yields NaN or Inf for Bounds built
// by hand.
func ComputeBounds(population []model.PlayerStats) (Bounds, error) {
	if len(population) == 0 {
		return Bounds{}, ErrEmptyPopulation
	}

	b := Bounds{
		MaxWinsPerGame:     maxFloor,
		MaxDominance:       maxFloor,
		MaxStreakStability: maxFloor,
		MinStreakStability: minStabilityCeiling,
		MaxEfficiency:      maxFloor,
		MinEfficiency:      minEfficiencyCeiling,
		MaxLoseStreak:      maxFloor,
	}
	for _, p := range population {
		d := Derive(p)
		b.MaxWinsPerGame = math.Max(b.MaxWinsPerGame, d.WinsPerGame)
		b.MaxDominance = math.Max(b.MaxDominance, d.Dominance)
		b.MaxStreakStability = math.Max(b.MaxStreakStability, d.StreakStability)
		b.MinStreakStability = math.Min(b.MinStreakStability, d.StreakStability)
		b.MaxEfficiency = math.Max(b.MaxEfficiency, d.Efficiency)
		b.MinEfficiency = math.Min(b.MinEfficiency, d.Efficiency)
		b.MaxLoseStreak = math.Max(b.MaxLoseStreak, float64(p.HighestLoseStreak))
	}
	return b, nil
}

// Profile scales subject against b. The subject does not have to be part of
// the population b was computed from.
func (b Bounds) Profile(subject model.PlayerStats) []Metric {
	d := Derive(subject)
	return []Metric{
		{
			Metric:   WinRate,
			Value:    subject.WinRate,
			FullMark: FullMark,
			Raw:      Fixed(subject.WinRate, 1) + "%",
		},
		{
			Metric:   WinsPerGame,
			Value:    (d.WinsPerGame / b.MaxWinsPerGame) * 100,
			FullMark: FullMark,
			Raw:      Fixed(d.WinsPerGame, 2),
		},
		{
			Metric:   Dominance,
			Value:    (d.Dominance / b.MaxDominance) * 100,
			FullMark: FullMark,
			Raw:      Fixed(d.Dominance, 2),
		},
		{
			// lower lose streak is better
			Metric:   Consistency,
			Value:    100 - (float64(subject.HighestLoseStreak)/b.MaxLoseStreak)*100,
			FullMark: FullMark,
			Raw:      fmt.Sprintf("LS: %d", subject.HighestLoseStreak),
		},
		{
			Metric:   Stability,
			Value:    ((d.StreakStability - b.MinStreakStability) / (b.MaxStreakStability - b.MinStreakStability)) * 100,
			FullMark: FullMark,
			Raw:      Fixed(d.StreakStability, 2),
		},
		{
			Metric:   Efficiency,
			Value:    ((d.Efficiency - b.MinEfficiency) / (b.MaxEfficiency - b.MinEfficiency)) * 100,
			FullMark: FullMark,
			Raw:      Fixed(d.Efficiency, 2),
		},
	}
}

// Normalize returns the six radar metrics of subject relative to population.
// It is pure and safe for concurrent use.
func Normalize(subject model.PlayerStats, population []model.PlayerStats) ([]Metric, error) {
	b, err := ComputeBounds(population)
	if err != nil {
		return nil, err
	}
	return b.Profile(subject), nil
}
