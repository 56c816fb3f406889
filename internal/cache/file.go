package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps cached pages as JSON files in a directory
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates the cache directory if needed
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl}, nil
}

func (s *FileStore) path(url string) string {
	return filepath.Join(s.dir, Key(url)+".json")
}

// Get returns the entry for url, or ErrMiss if absent or older than the TTL.
// Expired files are removed.
func (s *FileStore) Get(_ context.Context, url string) (*Entry, error) {
	path := s.path(url)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parsing cache entry: %w", err)
	}

	if s.ttl > 0 && time.Since(entry.CachedAt) > s.ttl {
		os.Remove(path) // nolint:errcheck
		return nil, ErrMiss
	}

	return &entry, nil
}

// Set writes entry, stamping CachedAt if unset
func (s *FileStore) Set(_ context.Context, entry *Entry) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	if err := os.WriteFile(s.path(entry.URL), data, 0644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// CleanExpired removes expired and unreadable entries and returns how many were removed.
// With a ttl of zero or less entries never expire, so only corrupt files are removed.
func (s *FileStore) CleanExpired() (int, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("listing cache: %w", err)
	}

	removed := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil || (s.ttl > 0 && time.Since(entry.CachedAt) > s.ttl) {
			if os.Remove(f) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Close is a no-op for file stores
func (s *FileStore) Close() error {
	return nil
}
