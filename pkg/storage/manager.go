package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// imageExts are the extensions a saved image may carry
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Manager saves images into one directory, keyed by image id
type Manager struct {
	outputDir string
	saved     map[int]string
	mu        sync.RWMutex
}

// NewManager creates outputDir if needed and indexes the images already in it
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[int]string),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records files named <id>.<ext>
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !imageExts[ext] {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			continue
		}
		m.saved[id] = filepath.Join(m.outputDir, name)
	}

	return nil
}

// ExtFromURL picks the file extension for an image URL, defaulting to .jpg
func ExtFromURL(imageURL string) string {
	if i := strings.IndexAny(imageURL, "?#"); i >= 0 {
		imageURL = imageURL[:i]
	}
	ext := strings.ToLower(path.Ext(imageURL))
	if imageExts[ext] {
		return ext
	}
	return ".jpg"
}

// PathFor returns where image id with the given extension is stored
func (m *Manager) PathFor(id int, ext string) string {
	return filepath.Join(m.outputDir, strconv.Itoa(id)+ext)
}

// IsSaved reports whether image id is already on disk
func (m *Manager) IsSaved(id int) (string, bool) {
	m.mu.RLock()
	p, ok := m.saved[id]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}

	// the file may have been removed behind our back
	if _, err := os.Stat(p); err != nil {
		m.mu.Lock()
		delete(m.saved, id)
		m.mu.Unlock()
		return "", false
	}
	return p, true
}

// Save writes r to <id><ext> through a temp file and rename
func (m *Manager) Save(r io.Reader, id int, ext string) (string, error) {
	filename := m.PathFor(id, ext)

	out, err := os.CreateTemp(m.outputDir, fmt.Sprintf(".%d-*.tmp", id))
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[id] = filename
	m.mu.Unlock()

	return filename, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of known saved images
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
