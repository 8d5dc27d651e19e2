package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	require.NoError(t, err)
	assert.Zero(t, manager.SavedCount())

	_, ok := manager.IsSaved(123)
	assert.False(t, ok)

	testData := []byte("test image data")
	path, err := manager.Save(bytes.NewReader(testData), 123, ".jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "123.jpg"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testData, content)

	got, ok := manager.IsSaved(123)
	assert.True(t, ok)
	assert.Equal(t, path, got)
	assert.Equal(t, 1, manager.SavedCount())

	// a file dropped in by hand and an unrelated file
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "456.png"), []byte("manual"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "cover.jpg"), []byte("x"), 0644))

	manager2, err := NewManager(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 2, manager2.SavedCount())
	_, ok = manager2.IsSaved(456)
	assert.True(t, ok)
}

func TestNoTempFilesLeft(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	require.NoError(t, err)

	_, err = manager.Save(bytes.NewReader([]byte("ok")), 1, ".jpg")
	require.NoError(t, err)

	_, err = manager.Save(failingReader{}, 2, ".jpg")
	require.Error(t, err)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.jpg", entries[0].Name())

	_, ok := manager.IsSaved(2)
	assert.False(t, ok)
}

func TestIsSavedNoticesRemovedFile(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path, err := manager.Save(bytes.NewReader([]byte("ok")), 7, ".jpg")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, ok := manager.IsSaved(7)
	assert.False(t, ok)
	assert.Zero(t, manager.SavedCount())
}

func TestConcurrentSaves(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := manager.Save(bytes.NewReader([]byte("data")), id, ".jpg")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, manager.SavedCount())
}

func TestExtFromURL(t *testing.T) {
	tests := map[string]string{
		"https://pixabay.com/get/abc_1280.jpg":     ".jpg",
		"https://pixabay.com/get/abc_1280.PNG":     ".png",
		"https://pixabay.com/get/abc.webp?x=1":     ".webp",
		"https://pixabay.com/get/abc":              ".jpg",
		"https://pixabay.com/get/abc.exe#fragment": ".jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtFromURL(in), in)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }
