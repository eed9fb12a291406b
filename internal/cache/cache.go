// Package cache records which unit levels have already been loaded in a
// session, so repeated loads cost nothing.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/skill-loader/internal/model"
)

// ErrConflict is returned by Put when different content is written for a
// (unit, level) that is already cached.
var ErrConflict = errors.New("cache entry already holds different content")

// Entry is the content loaded for one unit level.
type Entry struct {
	Content string `json:"content"`
	Tokens  int    `json:"tokens"`
}

// Record is a cache entry with its key, as exported.
type Record struct {
	SessionID string      `json:"session_id"`
	UnitID    string      `json:"unit_id"`
	Level     model.Level `json:"level"`
	Content   string      `json:"content"`
	Tokens    int         `json:"tokens"`
	CreatedAt time.Time   `json:"created_at"`
}

// Cache is a session-scoped store of loaded levels.
type Cache interface {
	// Get returns the entry for (id, level).
	Get(ctx context.Context, id string, level model.Level) (Entry, bool, error)

	// Put stores an entry. Writing identical content again is a no-op.
	Put(ctx context.Context, id string, level model.Level, e Entry) error

	// Highest returns the highest level L such that every level 1..L of
	// id is cached, or 0 when level 1 is not cached.
	Highest(ctx context.Context, id string) (model.Level, error)

	// Clear drops every entry of the session.
	Clear(ctx context.Context) error

	// Entries returns the session's entries in insertion order.
	Entries(ctx context.Context) ([]Record, error)

	// Stats summarizes the session.
	Stats(ctx context.Context) (*Stats, error)

	SessionID() string
	Close() error
}

// NewSessionID returns a fresh, time-ordered session id.
func NewSessionID() string {
	return ulid.Make().String()
}

func checkLevel(level model.Level) error {
	if !level.Valid() {
		return errors.New("cache: invalid level " + level.String())
	}
	return nil
}

// contiguous returns the highest level L such that have[1..L] are all
// set.
func contiguous(have map[model.Level]bool) model.Level {
	var top model.Level
	for _, l := range model.Levels {
		if !have[l] {
			break
		}
		top = l
	}
	return top
}
