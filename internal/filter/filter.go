// Package filter provides game filtering for extracted schedules.
//
// A filter narrows the games printed by a run by team name:
//   - Teams matches either side of a game
//   - Away matches only the away team
//   - Home matches only the home team
//
// All matching is a case-insensitive substring match, so "lakers" matches
// "Los Angeles Lakers" and "LA" matches "LA Clippers".
//
// Example usage:
//
//	f, err := filter.Parse([]string{"Boston", "home:Lakers"})
//	filtered := f.Apply(games)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/nba-schedule/internal/game"
)

// Filter represents game filtering criteria
type Filter struct {
	// Teams match either side of a game
	Teams []string `json:"teams,omitempty"`

	// Away and Home restrict the match to one side
	Away []string `json:"away,omitempty"`
	Home []string `json:"home,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all games until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Teams: []string{},
		Away:  []string{},
		Home:  []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return len(f.Teams) == 0 && len(f.Away) == 0 && len(f.Home) == 0
}

// Matches checks if a game matches the filter.
//
// Matching logic:
//   - Teams: away or home team must contain one of the names
//   - Away: away team must contain one of the names
//   - Home: home team must contain one of the names
//
// A game passes when it satisfies any one of the configured criteria. An empty filter
// matches all games.
func (f *Filter) Matches(g *game.Game) bool {
	if f.IsEmpty() {
		return true
	}

	for _, name := range f.Teams {
		if containsFold(g.AwayTeam, name) || containsFold(g.HomeTeam, name) {
			return true
		}
	}
	for _, name := range f.Away {
		if containsFold(g.AwayTeam, name) {
			return true
		}
	}
	for _, name := range f.Home {
		if containsFold(g.HomeTeam, name) {
			return true
		}
	}

	return false
}

// Apply applies the filter to a list of games and returns only matching games.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(games []*game.Game) []*game.Game {
	if f.IsEmpty() {
		return games
	}

	filtered := make([]*game.Game, 0, len(games))
	for _, g := range games {
		if f.Matches(g) {
			filtered = append(filtered, g)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "Teams: Boston | Home: Lakers"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if len(f.Teams) > 0 {
		parts = append(parts, fmt.Sprintf("Teams: %s", strings.Join(f.Teams, ", ")))
	}

	if len(f.Away) > 0 {
		parts = append(parts, fmt.Sprintf("Away: %s", strings.Join(f.Away, ", ")))
	}

	if len(f.Home) > 0 {
		parts = append(parts, fmt.Sprintf("Home: %s", strings.Join(f.Home, ", ")))
	}

	return strings.Join(parts, " | ")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
