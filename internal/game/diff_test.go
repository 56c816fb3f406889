package game

import (
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	g1 := NewGame("Boston", "New York", "https://example.com")
	g2 := NewGame("Denver", "Phoenix", "https://example.com")
	g3 := NewGame("Utah", "Atlanta", "https://example.com")

	firstSeen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	old := *g1
	old.FirstSeen = firstSeen

	previous := NewSnapshot()
	previous.Games[g1.ID] = &old
	previous.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	current := []*Game{g1, g2, g3}

	t.Run("finds new games", func(t *testing.T) {
		result := Diff(previous, current)

		if len(result.NewGames) != 2 {
			t.Fatalf("expected 2 new games, got %d", len(result.NewGames))
		}
		// Sorted by home team: Atlanta before Phoenix
		if result.NewGames[0].ID != g3.ID || result.NewGames[1].ID != g2.ID {
			t.Errorf("new games not sorted by home team: %v, %v", result.NewGames[0], result.NewGames[1])
		}
		if len(result.ByTeam["Phoenix"]) != 1 {
			t.Errorf("expected 1 new game for Phoenix, got %d", len(result.ByTeam["Phoenix"]))
		}
	})

	t.Run("keeps first seen of known games", func(t *testing.T) {
		Diff(previous, current)
		if !g1.FirstSeen.Equal(firstSeen) {
			t.Errorf("FirstSeen = %v, want %v", g1.FirstSeen, firstSeen)
		}
	})

	t.Run("nil previous snapshot", func(t *testing.T) {
		result := Diff(nil, current)
		if len(result.NewGames) != 3 {
			t.Errorf("expected all 3 games to be new, got %d", len(result.NewGames))
		}
	})
}

func TestCreateSnapshot(t *testing.T) {
	games := []*Game{NewGame("Boston", "New York", ""), NewGame("Denver", "Phoenix", "")}
	snap := CreateSnapshot(games, "2026-01-01T00:00:00Z")

	if len(snap.Games) != 2 {
		t.Errorf("snapshot has %d games, want 2", len(snap.Games))
	}
	if snap.UpdatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("UpdatedAt = %q", snap.UpdatedAt)
	}
}
