package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/nba-schedule/internal/game"
	"github.com/pfrederiksen/nba-schedule/internal/llm"
)

func TestWriteOutput_Raw(t *testing.T) {
	var buf bytes.Buffer
	raw := `[{"team1":"Boston","team2":"Boston"}]`
	result := &OutputResult{Raw: raw, Games: []*game.Game{game.NewGame("Denver", "Phoenix", "")}}

	if err := WriteOutput(&buf, result, FormatRaw, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if buf.String() != raw+"\n" {
		t.Errorf("raw output = %q, want %q", buf.String(), raw+"\n")
	}
}

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	result := &OutputResult{
		URL:       "https://www.espn.com/nba/schedule",
		CheckedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Strategy:  "llm",
		Usage:     &llm.Usage{TotalTokens: 42, Requests: 2},
	}

	if err := WriteOutput(&buf, result, FormatJSON, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"url", "checked_at", "strategy", "games", "game_count", "usage"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing key %q", key)
		}
	}
	if games, ok := decoded["games"].([]any); !ok || len(games) != 0 {
		t.Errorf("games = %v, want empty array", decoded["games"])
	}
	if _, ok := decoded["by_team"]; ok {
		t.Error("by_team should be omitted when empty")
	}
}

func TestWriteOutput_Text(t *testing.T) {
	games := []*game.Game{
		game.NewGame("Boston", "New York", ""),
		game.NewGame("", "Phoenix", ""),
	}

	tests := []struct {
		name     string
		result   *OutputResult
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "empty",
			result:   &OutputResult{},
			contains: []string{"No games found."},
		},
		{
			name:     "empty new only",
			result:   &OutputResult{NewOnly: true},
			contains: []string{"No new games found."},
		},
		{
			name:     "games",
			result:   &OutputResult{Games: games, GameCount: 2},
			contains: []string{"Boston @ New York", "? @ Phoenix", "Total: 2 games"},
			excludes: []string{"ID:"},
		},
		{
			name:     "verbose shows ids",
			result:   &OutputResult{Games: games[:1], GameCount: 1},
			verbose:  true,
			contains: []string{"ID: " + games[0].ID},
		},
		{
			name: "grouped by home team",
			result: &OutputResult{
				Games:     games,
				GameCount: 2,
				NewOnly:   true,
				ByTeam: map[string][]*game.Game{
					"Phoenix":  {games[1]},
					"New York": {games[0]},
				},
			},
			contains: []string{"New York (1 new games):", "NEW: Boston @ New York", "Total: 2 new games across 2 teams"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteOutput(&buf, tt.result, FormatText, tt.verbose); err != nil {
				t.Fatalf("WriteOutput() error = %v", err)
			}
			out := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestWriteOutput_GroupedOrder(t *testing.T) {
	var buf bytes.Buffer
	result := &OutputResult{
		GameCount: 2,
		NewOnly:   true,
		ByTeam: map[string][]*game.Game{
			"phoenix": {game.NewGame("Denver", "phoenix", "")},
			"Boston":  {game.NewGame("Miami", "Boston", "")},
		},
	}
	if err := WriteOutput(&buf, result, FormatText, false); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	out := buf.String()
	if strings.Index(out, "Boston (") > strings.Index(out, "phoenix (") {
		t.Errorf("teams should be listed case-insensitively sorted:\n%s", out)
	}
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, &OutputResult{}, OutputFormat("xml"), false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteUsage(t *testing.T) {
	var buf bytes.Buffer
	writeUsage(&buf, llm.Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10, Requests: 1})

	want := "LLM usage: 1 requests, 7 prompt tokens, 3 completion tokens, 10 total tokens\n"
	if buf.String() != want {
		t.Errorf("writeUsage() = %q, want %q", buf.String(), want)
	}
}
