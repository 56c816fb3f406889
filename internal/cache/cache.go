package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrMiss is returned when no fresh entry exists for a URL
var ErrMiss = errors.New("cache miss")

// Entry is a cached page
type Entry struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	StatusCode int       `json:"status_code"`
	CachedAt   time.Time `json:"cached_at"`
}

// Store is implemented by page caches
type Store interface {
	Get(ctx context.Context, url string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
	Close() error
}

// Key returns the cache key for a URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}

// Mode controls whether a run reads from and writes to the cache
type Mode string

const (
	ModeEnabled   Mode = "enabled"
	ModeDisabled  Mode = "disabled"
	ModeReadOnly  Mode = "read_only"
	ModeWriteOnly Mode = "write_only"
	ModeBypass    Mode = "bypass"
)

// ParseMode validates a cache mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeEnabled, ModeDisabled, ModeReadOnly, ModeWriteOnly, ModeBypass:
		return m, nil
	case "":
		return ModeBypass, nil
	default:
		return "", errors.New("invalid cache mode " + s + " (use enabled, disabled, read_only, write_only or bypass)")
	}
}

// CanRead reports whether the mode allows serving pages from the cache
func (m Mode) CanRead() bool {
	return m == ModeEnabled || m == ModeReadOnly
}

// CanWrite reports whether the mode allows storing fetched pages
func (m Mode) CanWrite() bool {
	return m == ModeEnabled || m == ModeWriteOnly
}
