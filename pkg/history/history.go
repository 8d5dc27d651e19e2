// Package history remembers recently submitted search queries.
//
// Only the query text is kept. Results are never persisted, so every
// recalled query is searched again from scratch.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pixgallery/pkg/config"
	"pixgallery/pkg/logger"
)

// DefaultLimit caps the number of stored queries
const DefaultLimit = 50

// Entry is one remembered query
type Entry struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

type file struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Manager reads and writes the history file
type Manager struct {
	path   string
	limit  int
	logger logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

// DefaultPath is history.json in the data directory
func DefaultPath() string {
	return filepath.Join(config.DataDir(), "history.json")
}

// NewManager creates a manager for path. An empty path uses DefaultPath.
func NewManager(path string, limit int, log logger.Logger) (*Manager, error) {
	if path == "" {
		path = DefaultPath()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Manager{
		path:   path,
		limit:  limit,
		logger: log.WithField("component", "history"),
		now:    time.Now,
	}, nil
}

// Path returns the history file location
func (m *Manager) Path() string {
	return m.path
}

// List returns entries, most recent first
func (m *Manager) List() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// Queries returns the query strings, most recent first
func (m *Manager) Queries() ([]string, error) {
	entries, err := m.List()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Query
	}
	return out, nil
}

// Add records query as the most recent. Queries that differ only in case
// or surrounding space are the same entry.
func (m *Manager) Add(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.load()
	if err != nil {
		// a corrupt file should not block searching
		m.logger.WithError(err).Warn("discarding unreadable history")
		entries = nil
	}

	entry := Entry{Query: query, Count: 1, LastUsed: m.now()}
	kept := entries[:0]
	for _, e := range entries {
		if strings.EqualFold(e.Query, query) {
			entry.Count += e.Count
			continue
		}
		kept = append(kept, e)
	}

	entries = append([]Entry{entry}, kept...)
	if len(entries) > m.limit {
		entries = entries[:m.limit]
	}
	return m.save(entries)
}

// Clear removes the history file
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	m.logger.Info("history cleared")
	return nil
}

func (m *Manager) load() ([]Entry, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return f.Entries, nil
}

// save writes entries through a temp file and rename
func (m *Manager) save(entries []Entry) error {
	tempPath := m.path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(file{Version: 1, Entries: entries}); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync history file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close history file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	m.logger.DebugWithFields("history saved", map[string]interface{}{
		"entries": len(entries),
	})
	return nil
}
