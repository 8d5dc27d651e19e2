package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pixgallery/internal/downloader"
	"pixgallery/pkg/auth"
	"pixgallery/pkg/cache"
	"pixgallery/pkg/config"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/ratelimit"
	"pixgallery/pkg/retry"
	"pixgallery/pkg/storage"
	"pixgallery/pkg/ui"
	"pixgallery/pkg/ui/tui"
)

// downloadsPerMinute paces image downloads, which do not count against the
// API quota
const downloadsPerMinute = 60

// app is the wiring shared by the commands that talk to Pixabay
type app struct {
	cfg     *config.Config
	log     logger.Logger
	cache   *cache.Store
	limiter *ratelimit.SlidingWindow
	client  *pixabay.Client
	// keySource names where the API key came from
	keySource string
}

// newApp loads configuration, sets up logging and builds the API client.
// quiet keeps logs off the terminal.
func newApp(cmd *cobra.Command, extra config.Overrides, quiet bool) (*app, error) {
	o := overrides(cmd)
	if extra.DownloadDir != "" {
		o.DownloadDir = extra.DownloadDir
	}
	if extra.Concurrent > 0 {
		o.Concurrent = extra.Concurrent
	}

	cfg, err := config.Load(configFile, o)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Logging.Quiet = quiet
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	a := &app{cfg: cfg, log: log, keySource: "config"}
	a.resolveAPIKey()

	var rc pixabay.ResponseCache
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL, cfg.Cache.MemoryEntries, log)
		if err != nil {
			log.WithError(err).Warn("response cache disabled")
		} else {
			a.cache = store
			rc = store
		}
	}

	a.limiter = ratelimit.NewSlidingWindow(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	a.client = pixabay.NewClient(cfg.Pixabay, a.limiter, rc, log)
	return a, nil
}

// resolveAPIKey falls back to the credential stores when neither flags,
// env nor the config file provided a key
func (a *app) resolveAPIKey() {
	if a.cfg.Pixabay.APIKey != "" {
		if apiKey != "" {
			a.keySource = "flag"
		}
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		a.log.WithError(err).Debug("credential stores unavailable")
		return
	}
	cred, source, err := manager.Resolve(profile)
	if err != nil {
		a.keySource = ""
		return
	}
	a.cfg.Pixabay.APIKey = cred.APIKey
	a.keySource = source
	a.log.WithFields(map[string]interface{}{
		"profile": cred.Profile,
		"source":  source,
	}).Debug("using stored API key")
}

func (a *app) requireAPIKey() error {
	if a.cfg.Pixabay.APIKey != "" {
		return nil
	}
	ui.PrintError("No Pixabay API key found")
	auth.ShowQuickGuide(os.Stdout)
	return errors.New("missing API key")
}

// saveFunc returns the downloader used by the gallery's save keys
func (a *app) saveFunc() tui.SaveFunc {
	return func(ctx context.Context, hits []pixabay.Hit, query string) []downloader.Result {
		return a.download(ctx, hits, query, nil)
	}
}

// download saves hits into the configured directory
func (a *app) download(ctx context.Context, hits []pixabay.Hit, query string, onResult func(downloader.Result)) []downloader.Result {
	store, err := storage.NewManager(a.cfg.Download.Directory)
	if err != nil {
		a.log.WithError(err).Error("cannot open download directory")
		results := make([]downloader.Result, len(hits))
		for i, h := range hits {
			results[i] = downloader.Result{Job: downloader.Job{Hit: h, Query: query}, Error: err}
		}
		return results
	}

	// images get their own client so the download timeout applies
	dlCfg := a.cfg.Pixabay
	dlCfg.Timeout = a.cfg.Download.Timeout
	fetcher := pixabay.NewClient(dlCfg, nil, nil, a.log)

	return downloader.DownloadAll(ctx, fetcher, store, hits, query, downloader.Options{
		Workers: a.cfg.Download.ConcurrentDownloads,
		Limiter: ratelimit.NewTokenBucket(downloadsPerMinute, time.Minute),
		Retry: &retry.Config{
			MaxAttempts: a.cfg.Download.RetryAttempts + 1,
			ByErrorType: retry.NewErrorTypeBackoff(),
			RetryIf:     retry.DefaultRetryIf,
			Logger:      a.log,
		},
		WriteMetadata:  a.cfg.Download.WriteMetadata,
		MetadataFormat: a.cfg.Download.MetadataFormat,
		Logger:         a.log,
	}, onResult)
}

// Close releases the cache
func (a *app) Close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close cache")
	}
}
