package cache

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgallery/pkg/logger"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, time.Hour, 8, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyIgnoresAPIKeyAndOrder(t *testing.T) {
	a, _ := url.Parse("https://pixabay.com/api/?q=cat&page=1&key=aaa")
	b, _ := url.Parse("https://pixabay.com/api/?key=bbb&page=1&q=cat")
	c, _ := url.Parse("https://pixabay.com/api/?q=cat&page=2&key=aaa")

	assert.Equal(t, Key(a), Key(b))
	assert.NotEqual(t, Key(a), Key(c))
	assert.Len(t, Key(a), 64)
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t, ":memory:")

	body := bytes.Repeat([]byte(`{"hits":[]}`), 100)
	require.NoError(t, s.Set("k", body))

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, body, got)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s1, err := Open(path, time.Hour, 8, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, s1.Set("k", []byte("persisted")))
	require.NoError(t, s1.Close())

	s2 := openTestStore(t, path)
	got, ok := s2.Get("k")
	require.True(t, ok)
	assert.Equal(t, "persisted", string(got))

	st, err := s2.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Entries)
	assert.Positive(t, st.CompressedBytes)
}

func TestExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s := openTestStore(t, path)

	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Set("k", []byte("old")))

	// a fresh handle has an empty memory tier, so the row expiry decides
	s2 := openTestStore(t, path)
	s2.now = func() time.Time { return now.Add(2 * time.Hour) }

	_, ok := s2.Get("k")
	assert.False(t, ok)

	st, err := s2.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Expired)

	n, err := s2.PurgeExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestClear(t *testing.T) {
	s := openTestStore(t, ":memory:")
	require.NoError(t, s.Set("a", []byte("1")))
	require.NoError(t, s.Set("b", []byte("2")))

	require.NoError(t, s.Clear())

	_, ok := s.Get("a")
	assert.False(t, ok)
	st, err := s.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
}

func TestClearWhileInUse(t *testing.T) {
	s := openTestStore(t, ":memory:")
	require.NoError(t, s.Set("warm", []byte("body")))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			for j := 0; j < 50; j++ {
				assert.NoError(t, s.Set(key, []byte("v")))
				s.Get(key)
				s.Get("warm")
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Clear())
	}
	wg.Wait()

	require.NoError(t, s.Clear())
	_, ok := s.Get("warm")
	assert.False(t, ok)
}
