// Package cache keeps API responses around for a day so repeated searches
// and re-paging do not spend request quota. Pixabay's terms require
// results to be cached for 24 hours.
//
// Bodies live brotli-compressed in a single sqlite table; a small
// in-memory TTL cache sits in front of it for the pages of the current
// session.
package cache

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	memcache "github.com/apibillme/cache"
	_ "github.com/mattn/go-sqlite3"

	"pixgallery/pkg/logger"
)

const schema = `
  CREATE TABLE IF NOT EXISTS responses (
      hash TEXT PRIMARY KEY,
      body BLOB NOT NULL,
      expiry INTEGER NOT NULL
  )
`

// Stats summarizes what the cache currently holds
type Stats struct {
	Entries         int
	Expired         int
	CompressedBytes int64
}

// Store is a two-tier response cache
type Store struct {
	db      *sql.DB
	// memMu guards the mem pointer, which Clear swaps
	memMu   sync.RWMutex
	mem     memcache.Cache
	memSize int
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger
}

// Open opens (creating if needed) the cache database at path and purges
// rows that expired while the app was not running. Use ":memory:" for an
// ephemeral cache.
func Open(path string, ttl time.Duration, memEntries int, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if memEntries <= 0 {
		memEntries = 64
	}

	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = "file:" + path
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// sqlite serializes writers anyway, and :memory: is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	s := &Store{
		db:      db,
		mem:     memcache.New(memEntries, memcache.WithTTL(ttl)),
		memSize: memEntries,
		ttl:     ttl,
		now:     time.Now,
		logger:  log.WithField("component", "cache"),
	}

	if n, err := s.PurgeExpired(); err != nil {
		s.logger.WithError(err).Warn("failed to purge expired cache rows")
	} else if n > 0 {
		s.logger.DebugWithFields("purged expired cache rows", map[string]interface{}{"rows": int(n)})
	}

	return s, nil
}

// Key derives a cache key from a request URL. The api key parameter is
// dropped so rotating keys keeps the cache warm.
func Key(u *url.URL) string {
	q := u.Query()
	q.Del("key")
	canon := *u
	canon.RawQuery = q.Encode() // Encode sorts by key
	sum := sha256.Sum256([]byte(canon.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns a live entry.
func (s *Store) Get(key string) ([]byte, bool) {
	if v, ok := s.memory().Get(key); ok {
		if body, ok := v.([]byte); ok {
			return body, true
		}
	}

	var compressed []byte
	err := s.db.QueryRow(
		"SELECT body FROM responses WHERE hash = ? AND expiry > ?",
		key, s.now().Unix(),
	).Scan(&compressed)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.WithError(err).Warn("cache lookup failed")
		}
		return nil, false
	}

	body, err := decompress(compressed)
	if err != nil {
		s.logger.WithError(err).Warn("dropping undecodable cache row")
		_, _ = s.db.Exec("DELETE FROM responses WHERE hash = ?", key)
		return nil, false
	}

	s.memory().Set(key, body)
	return body, true
}

// Set stores body under key for the configured TTL
func (s *Store) Set(key string, body []byte) error {
	compressed, err := compress(body)
	if err != nil {
		return fmt.Errorf("failed to compress response: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO responses (hash, body, expiry) VALUES (?, ?, ?)",
		key, compressed, s.now().Add(s.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}

	s.memory().Set(key, body)
	return nil
}

// PurgeExpired deletes rows whose expiry has passed
func (s *Store) PurgeExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM responses WHERE expiry <= ?", s.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear deletes every row. The in-memory tier is replaced.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM responses"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	s.memMu.Lock()
	s.mem = memcache.New(s.memSize, memcache.WithTTL(s.ttl))
	s.memMu.Unlock()
	return nil
}

func (s *Store) memory() memcache.Cache {
	s.memMu.RLock()
	defer s.memMu.RUnlock()
	return s.mem
}

// Stats reports row counts and the stored (compressed) size
func (s *Store) Stats() (Stats, error) {
	var st Stats
	var size sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN expiry <= ? THEN 1 ELSE 0 END), 0),
		        SUM(LENGTH(body))
		   FROM responses`,
		s.now().Unix(),
	).Scan(&st.Entries, &st.Expired, &size)
	if err != nil {
		return st, fmt.Errorf("failed to read cache stats: %w", err)
	}
	st.CompressedBytes = size.Int64
	return st, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}
