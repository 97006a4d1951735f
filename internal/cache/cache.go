// Package cache stores view snapshots in a local SQLite database so a
// board can be shown offline or before the first fetch completes.
//
// Each snapshot is one CBOR blob keyed by store.ViewKey. The encoding is
// deterministic, so saving an unchanged view rewrites identical bytes.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"planar/internal/debug"
	appErrors "planar/internal/errors"
	"planar/internal/store"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, WAL-friendly
)

// FileName is the database inside the config directory.
const FileName = "cache.db"

// schemaVersion is stored in user_version; a mismatch drops old rows.
const schemaVersion = 1

var logf = debug.Scope("cache").Logf

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cache: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cache: CBOR decoder initialization failed: " + err.Error())
	}
}

// Entry is a stored snapshot and when it was written.
type Entry struct {
	Snapshot store.Snapshot
	SavedAt  time.Time
}

// Cache is a snapshot database. It implements store.Snapshotter.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Snapshotter = (*Cache)(nil)

// DefaultPath returns ~/.planar/cache.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".planar", FileName), nil
}

// buildDSN creates a read-write WAL DSN for the given path.
func buildDSN(path string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(3000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, appErrors.New(appErrors.CodeCacheFailure, "cache path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, appErrors.New(appErrors.CodeCacheFailure, "create cache directory", err)
	}
	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, appErrors.New(appErrors.CodeCacheFailure, "open sqlite db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, appErrors.New(appErrors.CodeCacheFailure, "ping sqlite db", err)
	}
	c := &Cache{db: db, now: time.Now}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate(ctx context.Context) error {
	var version int
	if err := c.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return appErrors.New(appErrors.CodeCacheFailure, "read schema version", err)
	}
	if version != schemaVersion {
		logf("schema version %d, rebuilding cache", version)
		if _, err := c.db.ExecContext(ctx, `DROP TABLE IF EXISTS snapshots`); err != nil {
			return appErrors.New(appErrors.CodeCacheFailure, "drop snapshots", err)
		}
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			key      TEXT PRIMARY KEY,
			body     BLOB NOT NULL,
			saved_at INTEGER NOT NULL
		)`,
		fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return appErrors.New(appErrors.CodeCacheFailure, "migrate cache", err)
		}
	}
	return nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveSnapshot replaces the snapshot stored under snap.Key.
func (c *Cache) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	if snap.Key == "" {
		return appErrors.New(appErrors.CodeCacheFailure, "snapshot has no key", nil)
	}
	body, err := encMode.Marshal(snap)
	if err != nil {
		return appErrors.New(appErrors.CodeCacheFailure, "encode snapshot", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at
	`, snap.Key, body, c.now().UnixMilli())
	if err != nil {
		return appErrors.New(appErrors.CodeCacheFailure, "save snapshot", err)
	}
	logf("saved %s (%d issues, %d bytes)", snap.Key, len(snap.Issues), len(body))
	return nil
}

// Load returns the snapshot stored under key. A missing key is CodeNotFound.
func (c *Cache) Load(ctx context.Context, key string) (Entry, error) {
	var (
		body  []byte
		saved int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT body, saved_at FROM snapshots WHERE key = ?`, key).Scan(&body, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("no cached view %s", key), nil)
	}
	if err != nil {
		return Entry{}, appErrors.New(appErrors.CodeCacheFailure, "load snapshot", err)
	}
	var snap store.Snapshot
	if err := decMode.Unmarshal(body, &snap); err != nil {
		return Entry{}, appErrors.New(appErrors.CodeCacheFailure, fmt.Sprintf("decode cached view %s", key), err)
	}
	return Entry{Snapshot: snap, SavedAt: time.UnixMilli(saved)}, nil
}

// Keys lists stored snapshot keys, newest first.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key FROM snapshots ORDER BY saved_at DESC, key`)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeCacheFailure, "list snapshots", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, appErrors.New(appErrors.CodeCacheFailure, "scan snapshot key", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Prune deletes snapshots saved before cutoff and reports how many went.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE saved_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, appErrors.New(appErrors.CodeCacheFailure, "prune snapshots", err)
	}
	return res.RowsAffected()
}
