package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/nba-schedule/internal/game"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone   SortOrder = "none"
	SortByAway SortOrder = "away"
	SortByHome SortOrder = "home"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNone, SortByAway, SortByHome:
		return o, nil
	case "":
		return SortNone, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'none', 'away', or 'home')", s)
	}
}

// sortGames sorts games in place; SortNone keeps page order
func sortGames(games []*game.Game, sortOrder SortOrder) {
	switch sortOrder {
	case SortByAway:
		sort.SliceStable(games, func(i, j int) bool {
			if !strings.EqualFold(games[i].AwayTeam, games[j].AwayTeam) {
				return strings.ToLower(games[i].AwayTeam) < strings.ToLower(games[j].AwayTeam)
			}
			// If away teams are equal, sort by home team
			return strings.ToLower(games[i].HomeTeam) < strings.ToLower(games[j].HomeTeam)
		})
	case SortByHome:
		sort.SliceStable(games, func(i, j int) bool {
			if !strings.EqualFold(games[i].HomeTeam, games[j].HomeTeam) {
				return strings.ToLower(games[i].HomeTeam) < strings.ToLower(games[j].HomeTeam)
			}
			return strings.ToLower(games[i].AwayTeam) < strings.ToLower(games[j].AwayTeam)
		})
	}
}
