package game

import (
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name     string
		away     string
		home     string
		sameAs   [2]string
		wantSame bool
	}{
		{
			name:     "same input produces same ID",
			away:     "Boston",
			home:     "New York",
			sameAs:   [2]string{"Boston", "New York"},
			wantSame: true,
		},
		{
			name:     "case and spacing are normalized",
			away:     "  Golden   State ",
			home:     "LA",
			sameAs:   [2]string{"golden state", "la"},
			wantSame: true,
		},
		{
			name:     "swapped teams are a different game",
			away:     "Boston",
			home:     "New York",
			sameAs:   [2]string{"New York", "Boston"},
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := GenerateID(tt.away, tt.home)
			id2 := GenerateID(tt.sameAs[0], tt.sameAs[1])

			if (id1 == id2) != tt.wantSame {
				t.Errorf("GenerateID equality = %v, want %v (%s vs %s)", id1 == id2, tt.wantSame, id1, id2)
			}

			if len(id1) != 40 { // SHA1 produces 40 hex characters
				t.Errorf("expected ID length of 40, got %d", len(id1))
			}
		})
	}
}

func TestNewGame(t *testing.T) {
	g := NewGame(" Boston ", "New York", "https://example.com")

	if g.ID == "" {
		t.Error("expected ID to be generated")
	}
	if g.AwayTeam != "Boston" {
		t.Errorf("expected away team to be 'Boston', got '%s'", g.AwayTeam)
	}
	if g.FirstSeen.IsZero() {
		t.Error("expected FirstSeen to be set")
	}
	if g.String() != "Boston @ New York" {
		t.Errorf("String() = %q", g.String())
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		away, home string
		want       bool
	}{
		{"Boston", "New York", true},
		{"", "New York", false},
		{"Boston", "   ", false},
		{"", "", false},
	}

	for _, tt := range tests {
		g := &Game{AwayTeam: tt.away, HomeTeam: tt.home}
		if got := g.Valid(); got != tt.want {
			t.Errorf("Valid(%q, %q) = %v, want %v", tt.away, tt.home, got, tt.want)
		}
	}
}

func TestFromRecords(t *testing.T) {
	records := []map[string]any{
		{"away_team": "Boston", "home_team": "New York"},
		{"team1": "Denver", "team2": "Phoenix"},
		{"team1": "Utah"},
		{},
		{"index": 0, "error": true, "tags": []any{"error"}, "content": "boom"},
	}

	games := FromRecords(records, "https://example.com")

	if len(games) != 3 {
		t.Fatalf("FromRecords() returned %d games, want 3", len(games))
	}
	if games[1].AwayTeam != "Denver" || games[1].HomeTeam != "Phoenix" {
		t.Errorf("team1/team2 mapping = %q @ %q", games[1].AwayTeam, games[1].HomeTeam)
	}
	if games[2].Valid() {
		t.Error("game with only an away team should not be valid")
	}
	if len(OnlyValid(games)) != 2 {
		t.Errorf("OnlyValid() = %d games, want 2", len(OnlyValid(games)))
	}
}

func TestDedupe(t *testing.T) {
	games := []*Game{
		NewGame("Boston", "New York", ""),
		NewGame("Denver", "Phoenix", ""),
		NewGame("boston", "new york", ""),
	}

	unique := Dedupe(games)
	if len(unique) != 2 {
		t.Fatalf("Dedupe() returned %d games, want 2", len(unique))
	}
	if unique[0].AwayTeam != "Boston" {
		t.Errorf("Dedupe() should keep first occurrence, got %q", unique[0].AwayTeam)
	}
}
