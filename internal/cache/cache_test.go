package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rcliao/skill-loader/internal/model"
)

func newTestCaches(t *testing.T) map[string]Cache {
	t.Helper()
	sq, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"), "")
	if err != nil {
		t.Fatalf("open sqlite cache: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	mem, err := NewSQLite(context.Background(), "", "")
	if err != nil {
		t.Fatalf("open in-memory sqlite cache: %v", err)
	}
	t.Cleanup(func() { mem.Close() })
	return map[string]Cache{"memory": NewMemory(), "sqlite": sq, "sqlite-memory": mem}
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	for name, c := range newTestCaches(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, _ := c.Get(ctx, "coding-python", model.Level1); ok {
				t.Fatal("expected miss on empty cache")
			}
			want := Entry{Content: "quick start", Tokens: 3}
			if err := c.Put(ctx, "coding-python", model.Level1, want); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, ok, err := c.Get(ctx, "coding-python", model.Level1)
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
		})
	}
}

func TestPutIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, c := range newTestCaches(t) {
		t.Run(name, func(t *testing.T) {
			e := Entry{Content: "x", Tokens: 1}
			for range 3 {
				if err := c.Put(ctx, "a", model.Level1, e); err != nil {
					t.Fatalf("put: %v", err)
				}
			}
			records, _ := c.Entries(ctx)
			if len(records) != 1 {
				t.Errorf("expected 1 entry, got %d", len(records))
			}
		})
	}
}

func TestPutConflict(t *testing.T) {
	ctx := context.Background()
	for name, c := range newTestCaches(t) {
		t.Run(name, func(t *testing.T) {
			c.Put(ctx, "a", model.Level1, Entry{Content: "x", Tokens: 1})
			err := c.Put(ctx, "a", model.Level1, Entry{Content: "y", Tokens: 1})
			if !errors.Is(err, ErrConflict) {
				t.Errorf("expected ErrConflict, got %v", err)
			}
			got, _, _ := c.Get(ctx, "a", model.Level1)
			if got.Content != "x" {
				t.Errorf("conflicting put overwrote entry: %q", got.Content)
			}
		})
	}
}

func TestPutInvalidLevel(t *testing.T) {
	ctx := context.Background()
	for name, c := range newTestCaches(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Put(ctx, "a", model.Level(0), Entry{Content: "x"}); err == nil {
				t.Error("expected error for level 0")
			}
		})
	}
}

func TestHighestIsContiguous(t *testing.T) {
	ctx := context.Background()
	for name, c := range newTestCaches(t) {
		t.Run(name, func(t *testing.T) {
			if l, _ := c.Highest(ctx, "a"); l != 0 {
				t.Errorf("expected 0 for unknown unit, got %d", l)
			}
			c.Put(ctx, "a", model.Level1, Entry{Content: "1"})
			c.Put(ctx, "a", model.Level3, Entry{Content: "3"})
			if l, _ := c.Highest(ctx, "a"); l != model.Level1 {
				t.Errorf("expected level1 with a gap at 2, got %v", l)
			}
			c.Put(ctx, "a", model.Level2, Entry{Content: "2"})
			if l, _ := c.Highest(ctx, "a"); l != model.Level3 {
				t.Errorf("expected level3, got %v", l)
			}
		})
	}
}

func TestClearAndStats(t *testing.T) {
	ctx := context.Background()
	for name, c := range newTestCaches(t) {
		t.Run(name, func(t *testing.T) {
			c.Put(ctx, "a", model.Level1, Entry{Content: "a1", Tokens: 10})
			c.Put(ctx, "a", model.Level2, Entry{Content: "a2", Tokens: 40})
			c.Put(ctx, "b", model.Level1, Entry{Content: "b1", Tokens: 5})

			st, err := c.Stats(ctx)
			if err != nil {
				t.Fatalf("stats: %v", err)
			}
			if st.Entries != 3 || st.Units != 2 || st.TotalTokens != 55 {
				t.Errorf("unexpected stats: %+v", st)
			}
			if len(st.Levels) != 2 || st.Levels[0].Entries != 2 || st.Levels[1].Tokens != 40 {
				t.Errorf("unexpected level stats: %+v", st.Levels)
			}
			if st.SessionID != c.SessionID() {
				t.Errorf("stats session %q, cache session %q", st.SessionID, c.SessionID())
			}

			records, _ := c.Entries(ctx)
			if len(records) != 3 || records[0].UnitID != "a" || records[2].UnitID != "b" {
				t.Errorf("unexpected entries order: %+v", records)
			}

			if err := c.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			st, _ = c.Stats(ctx)
			if st.Entries != 0 {
				t.Errorf("expected empty cache after clear, got %d", st.Entries)
			}
		})
	}
}

func TestSQLiteResumesSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := NewSQLite(ctx, path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first.Put(ctx, "a", model.Level1, Entry{Content: "a1", Tokens: 2})
	id := first.SessionID()
	first.Close()

	second, err := NewSQLite(ctx, path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if second.SessionID() != id {
		t.Errorf("expected resumed session %s, got %s", id, second.SessionID())
	}
	if _, ok, _ := second.Get(ctx, "a", model.Level1); !ok {
		t.Error("expected entry from earlier invocation")
	}

	other, err := NewSQLite(ctx, path, NewSessionID())
	if err != nil {
		t.Fatalf("open other session: %v", err)
	}
	defer other.Close()
	if _, ok, _ := other.Get(ctx, "a", model.Level1); ok {
		t.Error("sessions must not share entries")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == b || len(a) != 26 {
		t.Errorf("unexpected session ids %q %q", a, b)
	}
}
