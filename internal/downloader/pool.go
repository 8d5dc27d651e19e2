package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"pixgallery/pkg/logger"
	"pixgallery/pkg/metadata"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/ratelimit"
	"pixgallery/pkg/retry"
	"pixgallery/pkg/storage"
)

// Job is one image to save
type Job struct {
	ID    string
	Hit   pixabay.Hit
	Query string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Path     string
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// ImageFetcher downloads image bytes
type ImageFetcher interface {
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}

// ImageStorage persists images by id
type ImageStorage interface {
	IsSaved(id int) (string, bool)
	Save(r io.Reader, id int, ext string) (string, error)
}

// Options configures a WorkerPool
type Options struct {
	Workers int
	// Limiter paces downloads across workers; nil means unpaced
	Limiter ratelimit.Limiter
	// Retry is applied to each download; nil disables retrying
	Retry          *retry.Config
	WriteMetadata  bool
	MetadataFormat string
	Logger         logger.Logger
}

// WorkerPool saves images concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
	stopped     atomic.Bool

	client   ImageFetcher
	storage  ImageStorage
	limiter  ratelimit.Limiter
	retryCfg *retry.Config
	metaOn   bool
	metaFmt  string
	logger   logger.Logger
}

// NewWorkerPool creates a pool bound to ctx. Call Start before Submit.
func NewWorkerPool(ctx context.Context, client ImageFetcher, store ImageStorage, opts Options) *WorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  opts.Workers,
		jobQueue:    make(chan Job, opts.Workers*2),
		resultQueue: make(chan Result, opts.Workers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     store,
		limiter:     opts.Limiter,
		retryCfg:    opts.Retry,
		metaOn:      opts.WriteMetadata,
		metaFmt:     opts.MetadataFormat,
		logger:      opts.Logger.WithField("component", "downloader"),
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	logger.LogComponentStart(wp.logger, "downloader", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop waits for queued jobs to finish and closes Results
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		wp.stopped.Store(true)
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		logger.LogComponentStop(wp.logger, "downloader", "stopped")
	})
}

// Cancel aborts in-flight downloads. Stop must still be called.
func (wp *WorkerPool) Cancel() {
	wp.cancel()
}

// Submit queues hit for download and returns the job id. It must not be
// called concurrently with Stop.
func (wp *WorkerPool) Submit(hit pixabay.Hit, query string) (string, error) {
	if wp.stopped.Load() {
		return "", fmt.Errorf("worker pool is stopped")
	}
	job := Job{ID: xid.New().String(), Hit: hit, Query: query}
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("job queued", map[string]interface{}{
			"job_id":   job.ID,
			"image_id": hit.ID,
		})
		return job.ID, nil
	case <-wp.ctx.Done():
		return "", fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel. It is closed by Stop.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// QueueSize returns the number of jobs waiting for a worker
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if wp.ctx.Err() != nil {
			result = Result{Job: job, Error: wp.ctx.Err()}
		} else {
			result = wp.processJob(job, id)
		}

		// results are always delivered so Stop can drain the queue
		wp.resultQueue <- result
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	hit := job.Hit
	log := wp.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"job_id":    job.ID,
	})

	if path, ok := wp.storage.IsSaved(hit.ID); ok {
		result.Path = path
		result.Skipped = true
		result.Duration = time.Since(start)
		logger.LogDownload(log, hit.ID, path, true, nil)
		return result
	}

	if wp.limiter != nil && !wp.limiter.Allow() {
		log.Debug("waiting for download slot")
		if err := wp.limiter.Wait(wp.ctx); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	url := hit.FullSizeURL()
	data, err := wp.fetch(url)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogDownload(log, hit.ID, "", false, result.Error)
		return result
	}
	result.Size = len(data)

	path, err := wp.storage.Save(bytes.NewReader(data), hit.ID, storage.ExtFromURL(url))
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogDownload(log, hit.ID, "", false, result.Error)
		return result
	}
	result.Path = path

	if wp.metaOn {
		meta := metadata.FromHit(hit, job.Query, int64(len(data)))
		if _, err := meta.Save(path, wp.metaFmt); err != nil {
			log.WithError(err).Warn("failed to write metadata")
		}
	}

	result.Duration = time.Since(start)
	logger.LogDownload(log, hit.ID, path, false, nil)
	return result
}

func (wp *WorkerPool) fetch(url string) ([]byte, error) {
	op := func() ([]byte, error) {
		return wp.client.DownloadImage(wp.ctx, url)
	}
	if wp.retryCfg == nil {
		return op()
	}
	return retry.DoWithResult(wp.ctx, op, wp.retryCfg)
}

// DownloadAll saves every hit with a fresh pool and returns the results
// in completion order. onResult, if set, sees each result as it arrives.
func DownloadAll(ctx context.Context, client ImageFetcher, store ImageStorage, hits []pixabay.Hit, query string, opts Options, onResult func(Result)) []Result {
	pool := NewWorkerPool(ctx, client, store, opts)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, hit := range hits {
			if _, err := pool.Submit(hit, query); err != nil {
				return
			}
		}
	}()

	results := make([]Result, 0, len(hits))
	for r := range pool.Results() {
		if onResult != nil {
			onResult(r)
		}
		results = append(results, r)
	}
	return results
}

// Summary counts results by outcome
type Summary struct {
	Saved   int
	Skipped int
	Failed  int
	Bytes   int
}

// Summarize tallies results
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Saved++
			s.Bytes += r.Size
		}
	}
	return s
}
