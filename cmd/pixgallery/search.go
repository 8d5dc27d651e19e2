package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pixgallery/internal/downloader"
	"pixgallery/pkg/config"
	"pixgallery/pkg/gallery"
	"pixgallery/pkg/history"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/ui"
)

var (
	// Search command flags
	searchPages int
	searchAll   bool
	searchSave  bool
	searchJSON  bool
	outputDir   string
	concurrent  int
	noHistory   bool
)

// searchCmd runs one search without the interactive gallery
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Pixabay and print the results",
	Long: `Search Pixabay and print the results as cards.

The first page holds up to 40 images. Use --pages to load more pages, or --all
to keep loading until the results run out. --save downloads the full-size
image for every result into the download directory.`,
	Example: `  # Print the first page of results
  pixgallery search "mountain lake"

  # Load three pages and save every image
  pixgallery search cats --pages 3 --save --output ./cats

  # Emit the raw hits as JSON
  pixgallery search sunset --all --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchPages, "pages", 1, "number of pages to load")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "load every page")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "download full-size images")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print hits as JSON")
	searchCmd.Flags().StringVarP(&outputDir, "output", "o", "", "download directory for --save")
	searchCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	searchCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the query in history")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if searchPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	a, err := newApp(cmd, config.Overrides{DownloadDir: outputDir, Concurrent: concurrent}, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireAPIKey(); err != nil {
		return err
	}

	if !searchJSON {
		ui.PrintLogo()
	}

	// keep stdout clean for JSON
	var out io.Writer = os.Stdout
	if searchJSON {
		out = os.Stderr
	}
	ctx := cmd.Context()

	ctrl := gallery.NewController(a.client, gallery.Options{
		PerPage:        a.client.PerPage(),
		MaxQueryLength: a.cfg.Gallery.MaxQueryLength,
		Notifier:       ui.NewNotifier(a.cfg.Notifications, out),
		Logger:         a.log,
	})
	defer ctrl.Close()

	res, err := ctrl.Submit(ctx, query)
	if err != nil {
		return err
	}
	recordQuery(a, query)
	printPage(res, 0)

	pages := 1
	for !res.Exhausted && (searchAll || pages < searchPages) {
		offset := len(ctrl.Snapshot().Items)
		next, err := ctrl.LoadMore(ctx)
		if err != nil {
			return err
		}
		if next == nil {
			break
		}
		res = next
		pages++
		printPage(res, offset)
	}

	snap := ctrl.Snapshot()
	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap.Items); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}

	if q := a.client.Quota(); q.Limit > 0 && !searchJSON {
		ui.PrintInfo("API quota", ui.QuotaStatus(q.Remaining, q.Limit))
	}

	if searchSave && len(snap.Items) > 0 {
		return saveAll(ctx, a, snap.Items, snap.Query, out)
	}
	return nil
}

func printPage(res *gallery.Result, offset int) {
	if searchJSON || res == nil || len(res.Items) == 0 {
		return
	}
	ui.PrintCards(os.Stdout, res.Items, offset)
}

func recordQuery(a *app, query string) {
	if noHistory {
		return
	}
	hist, err := history.NewManager("", history.DefaultLimit, a.log)
	if err != nil {
		a.log.WithError(err).Debug("search history disabled")
		return
	}
	if err := hist.Add(query); err != nil {
		a.log.WithError(err).Warn("failed to record search history")
	}
}

func saveAll(ctx context.Context, a *app, hits []pixabay.Hit, query string, out io.Writer) error {
	progress := ui.NewProgressDisplay(out, query, len(hits), a.cfg.Logging.Level == "debug")
	results := a.download(ctx, hits, query, func(r downloader.Result) {
		if r.Error != nil {
			progress.FailDownload(r.Job.Hit.ID, r.Error)
			return
		}
		progress.CompleteDownload(r.Job.Hit.ID, int64(r.Size), r.Skipped)
	})
	progress.Complete()

	sum := downloader.Summarize(results)
	a.log.InfoWithFields("save finished", map[string]interface{}{
		"saved":   sum.Saved,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
		"bytes":   sum.Bytes,
	})
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", sum.Failed, len(hits))
	}
	return nil
}
