package finder

import (
	"sync"

	"github.com/melkeydev/value-finder/types"
)

// ResultSet collects matches from concurrent workers in completion order.
type ResultSet struct {
	mu      sync.Mutex
	matches []types.MatchResult
}

func (r *ResultSet) Append(m types.MatchResult) {
	r.mu.Lock()
	r.matches = append(r.matches, m)
	r.mu.Unlock()
}

// Snapshot copies the matches collected so far.
func (r *ResultSet) Snapshot() []types.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.MatchResult, len(r.matches))
	copy(out, r.matches)
	return out
}

func (r *ResultSet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}
