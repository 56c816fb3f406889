package game

import (
	"sort"
	"strings"
)

// Snapshot represents the games listed on a schedule page at a point in time
type Snapshot struct {
	Games     map[string]*Game `json:"games"`      // keyed by Game.ID
	UpdatedAt string           `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Games: make(map[string]*Game),
	}
}

// CreateSnapshot creates a snapshot from a list of games
func CreateSnapshot(games []*Game, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.UpdatedAt = updatedAt
	for _, g := range games {
		snap.Games[g.ID] = g
	}
	return snap
}

// DiffResult contains the results of comparing current games with a snapshot
type DiffResult struct {
	NewGames []*Game
	ByTeam   map[string][]*Game // new games grouped by home team
}

// Diff compares current games against a previous snapshot and returns new games.
// A game already present in previous keeps its original FirstSeen.
func Diff(previous *Snapshot, current []*Game) *DiffResult {
	result := &DiffResult{
		NewGames: make([]*Game, 0),
		ByTeam:   make(map[string][]*Game),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, g := range current {
		if old, exists := previous.Games[g.ID]; exists {
			g.FirstSeen = old.FirstSeen
			continue
		}
		result.NewGames = append(result.NewGames, g)
		result.ByTeam[g.HomeTeam] = append(result.ByTeam[g.HomeTeam], g)
	}

	sort.SliceStable(result.NewGames, func(i, j int) bool {
		return less(result.NewGames[i], result.NewGames[j])
	})
	for team := range result.ByTeam {
		sort.SliceStable(result.ByTeam[team], func(i, j int) bool {
			return less(result.ByTeam[team][i], result.ByTeam[team][j])
		})
	}

	return result
}

func less(a, b *Game) bool {
	if !strings.EqualFold(a.HomeTeam, b.HomeTeam) {
		return strings.ToLower(a.HomeTeam) < strings.ToLower(b.HomeTeam)
	}
	return strings.ToLower(a.AwayTeam) < strings.ToLower(b.AwayTeam)
}
