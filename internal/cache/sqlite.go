package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/skill-loader/internal/model"
)

// InMemoryPath opens a SQLite cache that lives only as long as the process.
const InMemoryPath = ":memory:"

// SQLiteCache implements Cache using SQLite. A file-backed cache lets a
// session span several CLI invocations.
type SQLiteCache struct {
	db      *sql.DB
	path    string
	session string
}

// NewSQLite opens or creates a cache database at path. An empty path or
// ":memory:" keeps the database in memory. If sessionID is empty the most
// recent session in the database is resumed, or a new one is started.
func NewSQLite(ctx context.Context, path, sessionID string) (*SQLiteCache, error) {
	if path == "" {
		path = InMemoryPath
	}
	dsn := path
	if path != InMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	c := &SQLiteCache{db: db, path: path}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := c.startSession(ctx, sessionID); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCache) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cache_entries (
		session_id TEXT NOT NULL REFERENCES sessions(id),
		unit_id    TEXT NOT NULL,
		level      INTEGER NOT NULL CHECK (level BETWEEN 1 AND 3),
		content    TEXT NOT NULL,
		tokens     INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (session_id, unit_id, level)
	);
	CREATE INDEX IF NOT EXISTS idx_cache_entries_session ON cache_entries(session_id);
	`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

func (c *SQLiteCache) startSession(ctx context.Context, id string) error {
	if id == "" {
		err := c.db.QueryRowContext(ctx,
			`SELECT id FROM sessions ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id = NewSessionID()
		case err != nil:
			return fmt.Errorf("find session: %w", err)
		}
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	c.session = id
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, id string, level model.Level) (Entry, bool, error) {
	var e Entry
	err := c.db.QueryRowContext(ctx,
		`SELECT content, tokens FROM cache_entries
		 WHERE session_id = ? AND unit_id = ? AND level = ?`,
		c.session, id, int(level)).Scan(&e.Content, &e.Tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %s/%s: %w", id, level, err)
	}
	return e, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, id string, level model.Level, e Entry) error {
	if err := checkLevel(level); err != nil {
		return err
	}
	res, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO cache_entries (session_id, unit_id, level, content, tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.session, id, int(level), e.Content, e.Tokens, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", id, level, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	prev, _, err := c.Get(ctx, id, level)
	if err != nil {
		return err
	}
	if prev != e {
		return ErrConflict
	}
	return nil
}

func (c *SQLiteCache) Highest(ctx context.Context, id string) (model.Level, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT level FROM cache_entries WHERE session_id = ? AND unit_id = ?`,
		c.session, id)
	if err != nil {
		return 0, fmt.Errorf("highest %s: %w", id, err)
	}
	defer rows.Close()

	have := map[model.Level]bool{}
	for rows.Next() {
		var l int
		if err := rows.Scan(&l); err != nil {
			return 0, err
		}
		have[model.Level(l)] = true
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return contiguous(have), nil
}

func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE session_id = ?`, c.session)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Entries(ctx context.Context) ([]Record, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT session_id, unit_id, level, content, tokens, created_at
		 FROM cache_entries WHERE session_id = ? ORDER BY rowid`, c.session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var level int
		var created string
		if err := rows.Scan(&r.SessionID, &r.UnitID, &level, &r.Content, &r.Tokens, &created); err != nil {
			return nil, err
		}
		r.Level = model.Level(level)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats returns session statistics, including the database file size
// for a file-backed cache.
func (c *SQLiteCache) Stats(ctx context.Context) (*Stats, error) {
	records, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}
	st := summarize(c.session, records)
	st.Path = c.path
	if info, err := os.Stat(c.path); err == nil {
		st.SizeBytes = info.Size()
	}
	return st, nil
}

func (c *SQLiteCache) SessionID() string { return c.session }

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
