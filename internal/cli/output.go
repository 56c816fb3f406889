package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/nba-schedule/internal/game"
	"github.com/pfrederiksen/nba-schedule/internal/llm"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatRaw  OutputFormat = "raw"
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	URL       string                  `json:"url"`
	CheckedAt time.Time               `json:"checked_at"`
	Strategy  string                  `json:"strategy"`
	Games     []*game.Game            `json:"games"`
	GameCount int                     `json:"game_count"`
	ByTeam    map[string][]*game.Game `json:"by_team,omitempty"`
	NewOnly   bool                    `json:"new_only,omitempty"`
	Usage     *llm.Usage              `json:"usage,omitempty"`

	// Raw is the extracted content exactly as produced by the strategy
	Raw string `json:"-"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatRaw:
		return writeRaw(w, result)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeRaw outputs the extracted content verbatim
func writeRaw(w io.Writer, result *OutputResult) error {
	_, err := fmt.Fprintln(w, result.Raw)
	return err
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Games == nil {
		result.Games = []*game.Game{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	gameLabel := "games"
	if result.NewOnly {
		gameLabel = "new games"
	}

	if result.GameCount == 0 {
		fmt.Fprintf(w, "No %s found.\n", gameLabel)
		return nil
	}

	// Group by home team when reporting new games
	if len(result.ByTeam) > 0 {
		teams := make([]string, 0, len(result.ByTeam))
		for team := range result.ByTeam {
			teams = append(teams, team)
		}
		sort.Slice(teams, func(i, j int) bool {
			return strings.ToLower(teams[i]) < strings.ToLower(teams[j])
		})

		for _, team := range teams {
			games := result.ByTeam[team]
			if len(games) == 0 {
				continue
			}

			fmt.Fprintf(w, "\n%s (%d %s):\n", displayTeam(team), len(games), gameLabel)
			for _, g := range games {
				fmt.Fprintf(w, "  NEW: %s\n", g)
				if verbose {
					fmt.Fprintf(w, "       ID: %s\n", g.ID)
				}
			}
		}
		fmt.Fprintf(w, "\nTotal: %d %s across %d teams\n", result.GameCount, gameLabel, len(result.ByTeam))
		return nil
	}

	for _, g := range result.Games {
		fmt.Fprintln(w, g)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", g.ID)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d %s\n", result.GameCount, gameLabel)

	return nil
}

func displayTeam(team string) string {
	if team == "" {
		return "Unknown home team"
	}
	return team
}

// writeUsage prints a one-line LLM token summary
func writeUsage(w io.Writer, usage llm.Usage) {
	fmt.Fprintf(w, "LLM usage: %d requests, %d prompt tokens, %d completion tokens, %d total tokens\n",
		usage.Requests, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}
