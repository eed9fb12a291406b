package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rcliao/skill-loader/internal/model"
)

type key struct {
	id    string
	level model.Level
}

// MemoryCache is a process-scoped Cache. It is safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	session string
	entries map[key]Record
	order   []key
}

// NewMemory returns an empty in-memory cache with a fresh session id.
func NewMemory() *MemoryCache {
	return &MemoryCache{session: NewSessionID(), entries: map[key]Record{}}
}

func (c *MemoryCache) Get(_ context.Context, id string, level model.Level) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key{id, level}]
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Content: r.Content, Tokens: r.Tokens}, true, nil
}

func (c *MemoryCache) Put(_ context.Context, id string, level model.Level, e Entry) error {
	if err := checkLevel(level); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{id, level}
	if prev, ok := c.entries[k]; ok {
		if prev.Content != e.Content || prev.Tokens != e.Tokens {
			return ErrConflict
		}
		return nil
	}
	c.entries[k] = Record{
		SessionID: c.session,
		UnitID:    id,
		Level:     level,
		Content:   e.Content,
		Tokens:    e.Tokens,
		CreatedAt: time.Now().UTC(),
	}
	c.order = append(c.order, k)
	return nil
}

func (c *MemoryCache) Highest(_ context.Context, id string) (model.Level, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	have := map[model.Level]bool{}
	for _, l := range model.Levels {
		_, have[l] = c.entries[key{id, l}]
	}
	return contiguous(have), nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[key]Record{}
	c.order = nil
	return nil
}

func (c *MemoryCache) Entries(context.Context) ([]Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.entries[k])
	}
	return out, nil
}

func (c *MemoryCache) Stats(ctx context.Context) (*Stats, error) {
	records, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(c.session, records), nil
}

func (c *MemoryCache) SessionID() string { return c.session }

func (c *MemoryCache) Close() error { return nil }
