package game

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Game represents one row of a schedule: the away team visiting the home team.
type Game struct {
	ID        string    `json:"id"`
	AwayTeam  string    `json:"away_team"`
	HomeTeam  string    `json:"home_team"`
	SourceURL string    `json:"source_url,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
}

// Record keys accepted for each side. LLM extraction emits the schema names, the
// selector schema used on the ESPN page emits team1/team2.
var (
	awayKeys = []string{"away_team", "team1", "away"}
	homeKeys = []string{"home_team", "team2", "home"}
)

// GenerateID creates a deterministic ID for a game from both team names
func GenerateID(away, home string) string {
	h := sha1.New()
	h.Write([]byte(normalize(away) + "|" + normalize(home)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewGame creates a new Game with ID and FirstSeen populated
func NewGame(away, home, sourceURL string) *Game {
	away = strings.TrimSpace(away)
	home = strings.TrimSpace(home)
	return &Game{
		ID:        GenerateID(away, home),
		AwayTeam:  away,
		HomeTeam:  home,
		SourceURL: sourceURL,
		FirstSeen: time.Now().UTC(),
	}
}

// Valid reports whether both teams are present and non-empty
func (g *Game) Valid() bool {
	return strings.TrimSpace(g.AwayTeam) != "" && strings.TrimSpace(g.HomeTeam) != ""
}

// String renders the game as "Away @ Home"
func (g *Game) String() string {
	away, home := g.AwayTeam, g.HomeTeam
	if away == "" {
		away = "?"
	}
	if home == "" {
		home = "?"
	}
	return away + " @ " + home
}

// FromRecords converts extracted row objects into games. Rows flagged as errors by the
// extraction layer and rows with neither team are skipped.
func FromRecords(records []map[string]any, sourceURL string) []*Game {
	games := make([]*Game, 0, len(records))
	for _, rec := range records {
		if isErr, _ := rec["error"].(bool); isErr {
			continue
		}
		away := lookup(rec, awayKeys)
		home := lookup(rec, homeKeys)
		if away == "" && home == "" {
			continue
		}
		games = append(games, NewGame(away, home, sourceURL))
	}
	return games
}

// Dedupe drops games whose ID was already seen, keeping first occurrence order
func Dedupe(games []*Game) []*Game {
	seen := make(map[string]bool, len(games))
	unique := make([]*Game, 0, len(games))
	for _, g := range games {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		unique = append(unique, g)
	}
	return unique
}

// OnlyValid returns the games for which Valid is true
func OnlyValid(games []*Game) []*Game {
	valid := make([]*Game, 0, len(games))
	for _, g := range games {
		if g.Valid() {
			valid = append(valid, g)
		}
	}
	return valid
}

func lookup(rec map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return strings.TrimSpace(val)
		default:
			return strings.TrimSpace(fmt.Sprint(val))
		}
	}
	return ""
}

func normalize(team string) string {
	return strings.ToLower(strings.Join(strings.Fields(team), " "))
}
