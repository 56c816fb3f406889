package storage

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/nba-schedule/internal/game"
)

// DefaultDataDir is used when no data directory is configured
const DefaultDataDir = "~/.local/share/nba-schedule"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Storage handles persistence of game snapshots
type Storage struct {
	dataDir string
}

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return path, nil
}

// New creates a new Storage instance, creating dataDir if needed
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	dataDir, err := ExpandPath(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// Slug turns a page URL into a file-name-safe key, e.g.
// https://www.espn.com/nba/schedule -> espn-com-nba-schedule
func Slug(pageURL string) string {
	key := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		key = strings.TrimPrefix(u.Host, "www.") + u.Path
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(key), "-"), "-")
	if slug == "" {
		return "all"
	}
	return slug
}

// getSnapshotPath returns the path to the snapshot file for a page
func (s *Storage) getSnapshotPath(pageURL string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", Slug(pageURL)))
}

// LoadSnapshot loads the snapshot for a page from disk
func (s *Storage) LoadSnapshot(pageURL string) (*game.Snapshot, error) {
	path := s.getSnapshotPath(pageURL)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return game.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot game.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Games == nil {
		snapshot.Games = make(map[string]*game.Game)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *game.Snapshot, pageURL string) error {
	path := s.getSnapshotPath(pageURL)

	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// CreateSnapshotFromGames creates and saves a snapshot from a list of games
func (s *Storage) CreateSnapshotFromGames(games []*game.Game, pageURL string) error {
	snapshot := game.CreateSnapshot(games, time.Now().UTC().Format(time.RFC3339))
	return s.SaveSnapshot(snapshot, pageURL)
}

// GetGameByID retrieves a game by ID from a page's snapshot
func (s *Storage) GetGameByID(pageURL, gameID string) (*game.Game, error) {
	snapshot, err := s.LoadSnapshot(pageURL)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if g, exists := snapshot.Games[gameID]; exists {
		return g, nil
	}

	return nil, fmt.Errorf("game not found: %s", gameID)
}
