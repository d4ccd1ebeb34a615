package model

import "time"

// GlobalScope addresses the population of all players across every series.
const GlobalScope = ""

// RefreshJob asks the workers to reload one scope's population from upstream.
type RefreshJob struct {
	ID          string    // idempotency key
	Scope       string    // series id, or GlobalScope
	Reason      string    // e.g. "schedule", "api", "game_recorded"
	RequestedAt time.Time // when the job was created

	// Coalesced marks a job that holds its scope's pending slot until a
	// worker finishes it.
	Coalesced bool
}

// ScopeLabel renders a scope for logs and metrics.
func ScopeLabel(scope string) string {
	if scope == GlobalScope {
		return "global"
	}
	return scope
}
