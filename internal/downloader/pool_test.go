package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pixgallery/pkg/errors"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/metadata"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/ratelimit"
	"pixgallery/pkg/retry"
	"pixgallery/pkg/storage"
)

// MockClient is a mock image fetcher
type MockClient struct {
	downloadDelay   time.Duration
	failures        int32
	failWith        error
	downloadCounter int32
}

func (m *MockClient) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	n := atomic.AddInt32(&m.downloadCounter, 1)
	if m.downloadDelay > 0 {
		select {
		case <-time.After(m.downloadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= atomic.LoadInt32(&m.failures) {
		return nil, m.failWith
	}
	return []byte("image:" + url), nil
}

func (m *MockClient) Count() int {
	return int(atomic.LoadInt32(&m.downloadCounter))
}

// MockStorage is an in-memory ImageStorage
type MockStorage struct {
	mu        sync.Mutex
	saved     map[int][]byte
	saveError error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{saved: make(map[int][]byte)}
}

func (m *MockStorage) IsSaved(id int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saved[id]; ok {
		return fmt.Sprintf("mem://%d", id), true
	}
	return "", false
}

func (m *MockStorage) Save(r io.Reader, id int, ext string) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.saved[id] = data
	m.mu.Unlock()
	return fmt.Sprintf("mem://%d%s", id, ext), nil
}

func testHits(n int) []pixabay.Hit {
	hits := make([]pixabay.Hit, n)
	for i := range hits {
		hits[i] = pixabay.Hit{
			ID:            i + 1,
			LargeImageURL: fmt.Sprintf("https://cdn.example/%d_1280.jpg", i+1),
			Tags:          "a, b",
		}
	}
	return hits
}

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{
		MaxAttempts: attempts,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

func TestWorkerPoolSavesAll(t *testing.T) {
	client := &MockClient{}
	store := NewMockStorage()

	results := DownloadAll(context.Background(), client, store, testHits(10), "cats",
		Options{Workers: 3, Logger: logger.NewTestLogger()}, nil)

	require.Len(t, results, 10)
	sum := Summarize(results)
	assert.Equal(t, 10, sum.Saved)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, 10, client.Count())

	seen := map[string]bool{}
	for _, r := range results {
		assert.NotEmpty(t, r.Job.ID)
		assert.False(t, seen[r.Job.ID], "job ids are unique")
		seen[r.Job.ID] = true
		assert.Equal(t, "cats", r.Job.Query)
	}
}

func TestWorkerPoolSkipsSaved(t *testing.T) {
	client := &MockClient{}
	store := NewMockStorage()
	store.saved[2] = []byte("old")

	results := DownloadAll(context.Background(), client, store, testHits(3), "",
		Options{Workers: 2, Logger: logger.NewTestLogger()}, nil)

	sum := Summarize(results)
	assert.Equal(t, 2, sum.Saved)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, client.Count())
}

func TestWorkerPoolRetriesTransientFailures(t *testing.T) {
	client := &MockClient{
		failures: 2,
		failWith: errs.New(errs.ErrorTypeServerError, 503, "unavailable", nil),
	}
	store := NewMockStorage()

	results := DownloadAll(context.Background(), client, store, testHits(1), "",
		Options{Workers: 1, Retry: fastRetry(3), Logger: logger.NewTestLogger()}, nil)

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Error)
	assert.Equal(t, 3, client.Count())
}

func TestWorkerPoolDoesNotRetryPermanentFailures(t *testing.T) {
	client := &MockClient{
		failures: 5,
		failWith: errs.New(errs.ErrorTypeNotFound, 404, "gone", nil),
	}

	results := DownloadAll(context.Background(), client, NewMockStorage(), testHits(1), "",
		Options{Workers: 1, Retry: fastRetry(3), Logger: logger.NewTestLogger()}, nil)

	require.Len(t, results, 1)
	assert.Error(t, results[0].Error)
	assert.Equal(t, 1, client.Count())
	assert.Equal(t, 1, Summarize(results).Failed)
}

func TestWorkerPoolSaveError(t *testing.T) {
	store := NewMockStorage()
	store.saveError = errors.New("disk full")
	log := logger.NewTestLogger()

	results := DownloadAll(context.Background(), &MockClient{}, store, testHits(2), "",
		Options{Workers: 2, Logger: log}, nil)

	for _, r := range results {
		assert.ErrorContains(t, r.Error, "save failed")
	}
	assert.True(t, log.HasError())
}

func TestWorkerPoolCancel(t *testing.T) {
	client := &MockClient{downloadDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	var got int32
	done := make(chan []Result, 1)
	go func() {
		done <- DownloadAll(ctx, client, NewMockStorage(), testHits(4), "",
			Options{Workers: 2, Logger: logger.NewTestLogger()},
			func(Result) { atomic.AddInt32(&got, 1) })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case results := <-done:
		for _, r := range results {
			assert.Error(t, r.Error)
		}
		assert.Equal(t, int32(len(results)), atomic.LoadInt32(&got))
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

func TestWorkerPoolUsesLimiter(t *testing.T) {
	limiter := ratelimit.NewTokenBucket(2, time.Hour)
	client := &MockClient{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results := DownloadAll(ctx, client, NewMockStorage(), testHits(3), "",
		Options{Workers: 1, Limiter: limiter, Logger: logger.NewTestLogger()}, nil)

	sum := Summarize(results)
	assert.Equal(t, 2, sum.Saved)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, client.Count())
}

func TestWorkerPoolWritesMetadata(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	results := DownloadAll(context.Background(), &MockClient{}, store, testHits(2), "cats",
		Options{Workers: 2, WriteMetadata: true, MetadataFormat: metadata.FormatYAML, Logger: logger.NewTestLogger()}, nil)

	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("%d.jpg", r.Job.Hit.ID)), r.Path)

		meta, err := metadata.Load(r.Path)
		require.NoError(t, err)
		assert.Equal(t, r.Job.Hit.ID, meta.ID)
		assert.Equal(t, "cats", meta.Query)
		assert.Equal(t, int64(r.Size), meta.FileSize)
	}

	_, err = os.Stat(filepath.Join(dir, "1.jpg.yaml"))
	assert.NoError(t, err)
}

func TestSubmitAfterStopFails(t *testing.T) {
	pool := NewWorkerPool(context.Background(), &MockClient{}, NewMockStorage(), Options{Workers: 1, Logger: logger.NewNopLogger()})
	pool.Start()
	pool.Stop()
	pool.Stop()

	_, err := pool.Submit(pixabay.Hit{ID: 1}, "")
	assert.Error(t, err)
}
