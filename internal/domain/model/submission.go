package model

import (
	"fmt"
	"strings"
)

// Team size bounds for a recorded game.
const (
	MinTeamSize = 3
	MaxTeamSize = 4
)

// NewSeriesRequest is the payload for creating a series.
type NewSeriesRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

// Validate checks the series form rules.
func (r NewSeriesRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: series name is required", ErrInvalidSubmission)
	}
	if len(r.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidSubmission)
	}
	if err := checkIDs("participants", r.Participants, map[string]struct{}{}); err != nil {
		return err
	}
	return nil
}

// NewGameRequest is the payload for recording a game result.
type NewGameRequest struct {
	GameNumber int      `json:"gameNumber"`
	TeamBlue   []string `json:"teamBlue"`
	TeamRed    []string `json:"teamRed"`
	Winner     Team     `json:"winner"`
}

// Validate checks the game form rules: each team has 3-4 players, nobody
// plays twice, and the winner names one of the teams.
func (r NewGameRequest) Validate() error {
	if r.GameNumber < 1 {
		return fmt.Errorf("%w: gameNumber must be at least 1", ErrInvalidSubmission)
	}
	if n := len(r.TeamBlue); n < MinTeamSize || n > MaxTeamSize {
		return fmt.Errorf("%w: team blue must have %d-%d players", ErrInvalidSubmission, MinTeamSize, MaxTeamSize)
	}
	if n := len(r.TeamRed); n < MinTeamSize || n > MaxTeamSize {
		return fmt.Errorf("%w: team red must have %d-%d players", ErrInvalidSubmission, MinTeamSize, MaxTeamSize)
	}
	seen := make(map[string]struct{}, len(r.TeamBlue)+len(r.TeamRed))
	if err := checkIDs("teamBlue", r.TeamBlue, seen); err != nil {
		return err
	}
	if err := checkIDs("teamRed", r.TeamRed, seen); err != nil {
		return err
	}
	if !r.Winner.Valid() {
		return fmt.Errorf("%w: winner must be %q or %q", ErrInvalidSubmission, TeamBlue, TeamRed)
	}
	return nil
}

// checkIDs rejects blank ids and ids already present in seen, recording the rest.
func checkIDs(field string, ids []string, seen map[string]struct{}) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %s contains an empty player id", ErrInvalidSubmission, field)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %s appears more than once", ErrInvalidSubmission, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
