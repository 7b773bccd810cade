// Package storage provides the SQLite-backed cache store for chat histories,
// extracted page content, and in-flight loading state. Entries are plain
// key/value rows namespaced by prefix so a whole page can be cleared in one
// pass.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// Key namespaces. A chat or loading key is scoped to a page URL plus the
// quick-input tab it belongs to; page content is scoped to the URL alone.
const (
	PrefixChat    = "chat:"
	PrefixPage    = "page:"
	PrefixLoading = "loading:"
)

// SoftQuota is the advisory storage ceiling used for the usage display.
// Writes are never rejected; the UI just shows the percentage.
const SoftQuota = 10 << 20 // 10MB

const maxRecentURLs = 50

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS recent_urls (
	url          TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	last_visited INTEGER NOT NULL
);
`

// Store is the cache store. Safe for concurrent use; SQLite serializes
// writers, so the pool is capped at a single connection.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the cache database location under the user's home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "thinkbot-cache.db")
	}
	return filepath.Join(home, ".thinkbot", "cache.db")
}

// Open opens (creating if needed) the cache store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.StorageOpenFailed(path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StorageOpenFailed(path, err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.StorageOpenFailed(path, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.StorageOpenFailed(path, err)
	}

	logger.Debug("Storage: Opened cache store at %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Key builders. Tab IDs come from quick inputs; the default chat tab uses an
// empty tab id.

func ChatKey(url, tabID string) string {
	return PrefixChat + url + "#" + tabID
}

func PageKey(url string) string {
	return PrefixPage + url
}

func LoadingKey(url, tabID string) string {
	return PrefixLoading + url + "#" + tabID
}

// Get returns the value stored under key, or a not-found error.
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, errors.KeyNotFound(key)
	}
	if err != nil {
		return nil, errors.E(errors.Op("storage.Get"), errors.KindStorage, err)
	}
	return value, nil
}

// Put stores value under key, replacing any existing entry.
func (s *Store) Put(key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().UnixMilli())
	if err != nil {
		return errors.E(errors.Op("storage.Put"), errors.KindStorage, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return errors.E(errors.Op("storage.Delete"), errors.KindStorage, err)
	}
	return nil
}

// ClearURL removes everything cached for a page: its extracted content plus
// per-tab chat histories and loading markers.
func (s *Store) ClearURL(url string) error {
	patterns := []string{
		PrefixPage + url,
		PrefixChat + url + "#%",
		PrefixLoading + url + "#%",
	}
	for _, pattern := range patterns {
		var err error
		if strings.ContainsRune(pattern, '%') {
			_, err = s.db.Exec("DELETE FROM kv WHERE key LIKE ?", pattern)
		} else {
			_, err = s.db.Exec("DELETE FROM kv WHERE key = ?", pattern)
		}
		if err != nil {
			return errors.E(errors.Op("storage.ClearURL"), errors.KindStorage, err)
		}
	}
	if _, err := s.db.Exec("DELETE FROM recent_urls WHERE url = ?", url); err != nil {
		return errors.E(errors.Op("storage.ClearURL"), errors.KindStorage, err)
	}
	logger.Info("Storage: Cleared cached data for %s", url)
	return nil
}

// ClearAll removes every cached entry and the recent-URL list. Used by the
// clear subcommand.
func (s *Store) ClearAll() error {
	if _, err := s.db.Exec("DELETE FROM kv"); err != nil {
		return errors.E(errors.Op("storage.ClearAll"), errors.KindStorage, err)
	}
	if _, err := s.db.Exec("DELETE FROM recent_urls"); err != nil {
		return errors.E(errors.Op("storage.ClearAll"), errors.KindStorage, err)
	}
	return nil
}

// RecentURL is one entry of the recently visited list shown in the sidebar.
type RecentURL struct {
	URL         string
	Title       string
	LastVisited time.Time
}

// TouchRecentURL records a visit, bumping the URL to the top of the recent
// list and trimming the list to its cap.
func (s *Store) TouchRecentURL(url, title string) error {
	_, err := s.db.Exec(
		"INSERT INTO recent_urls (url, title, last_visited) VALUES (?, ?, ?) "+
			"ON CONFLICT(url) DO UPDATE SET title = excluded.title, last_visited = excluded.last_visited",
		url, title, time.Now().UnixMilli())
	if err != nil {
		return errors.E(errors.Op("storage.TouchRecentURL"), errors.KindStorage, err)
	}
	_, err = s.db.Exec(
		"DELETE FROM recent_urls WHERE url NOT IN "+
			"(SELECT url FROM recent_urls ORDER BY last_visited DESC LIMIT ?)",
		maxRecentURLs)
	if err != nil {
		return errors.E(errors.Op("storage.TouchRecentURL"), errors.KindStorage, err)
	}
	return nil
}

// RecentURLs returns up to limit recently visited URLs, newest first.
func (s *Store) RecentURLs(limit int) ([]RecentURL, error) {
	if limit <= 0 || limit > maxRecentURLs {
		limit = maxRecentURLs
	}
	rows, err := s.db.Query(
		"SELECT url, title, last_visited FROM recent_urls ORDER BY last_visited DESC LIMIT ?", limit)
	if err != nil {
		return nil, errors.E(errors.Op("storage.RecentURLs"), errors.KindStorage, err)
	}
	defer rows.Close()

	var urls []RecentURL
	for rows.Next() {
		var u RecentURL
		var visited int64
		if err := rows.Scan(&u.URL, &u.Title, &visited); err != nil {
			return nil, errors.E(errors.Op("storage.RecentURLs"), errors.KindStorage, err)
		}
		u.LastVisited = time.UnixMilli(visited)
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Usage summarizes stored bytes against the soft quota.
type Usage struct {
	UsedBytes  int64
	QuotaBytes int64
}

// Percent returns used space as a percentage of the soft quota.
func (u Usage) Percent() float64 {
	if u.QuotaBytes == 0 {
		return 0
	}
	return float64(u.UsedBytes) / float64(u.QuotaBytes) * 100
}

// Usage computes current storage usage for the usage display. Byte counts
// cover stored values plus their keys; index overhead is not included.
func (s *Store) Usage() (Usage, error) {
	var used sql.NullInt64
	err := s.db.QueryRow("SELECT SUM(LENGTH(key) + LENGTH(value)) FROM kv").Scan(&used)
	if err != nil {
		return Usage{}, errors.E(errors.Op("storage.Usage"), errors.KindStorage, err)
	}
	return Usage{UsedBytes: used.Int64, QuotaBytes: SoftQuota}, nil
}
