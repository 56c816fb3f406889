package cli

import (
	"testing"

	"github.com/pfrederiksen/nba-schedule/internal/game"
)

func teams(games []*game.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.String()
	}
	return out
}

func TestSortGames(t *testing.T) {
	newGames := func() []*game.Game {
		return []*game.Game{
			game.NewGame("denver", "Phoenix", ""),
			game.NewGame("Boston", "New York", ""),
			game.NewGame("Boston", "Atlanta", ""),
		}
	}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortNone, []string{"denver @ Phoenix", "Boston @ New York", "Boston @ Atlanta"}},
		{SortByAway, []string{"Boston @ Atlanta", "Boston @ New York", "denver @ Phoenix"}},
		{SortByHome, []string{"Boston @ Atlanta", "Boston @ New York", "denver @ Phoenix"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			games := newGames()
			sortGames(games, tt.order)
			got := teams(games)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sortGames(%s) = %v, want %v", tt.order, got, tt.want)
					break
				}
			}
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    SortOrder
		wantErr bool
	}{
		{"", SortNone, false},
		{"none", SortNone, false},
		{"AWAY", SortByAway, false},
		{" home ", SortByHome, false},
		{"date", "", true},
	}

	for _, tt := range tests {
		got, err := parseSortOrder(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSortOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSortOrder(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
