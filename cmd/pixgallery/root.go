package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pixgallery/pkg/config"
	"pixgallery/pkg/gallery"
	"pixgallery/pkg/history"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/ui"
	"pixgallery/pkg/ui/tui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	apiKey         string
	profile        string
	logLevel       string
	logFile        string
	noColor        bool
	noCache        bool
	notifications  bool
	infiniteScroll bool
)

// rootCmd opens the interactive gallery when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "pixgallery",
	Short: "Search and browse Pixabay images from the terminal",
	Long: `pixgallery searches Pixabay and shows the results as a gallery of cards.

Type a keyword and press Enter. Results arrive 40 at a time; press m to load
the next page, or enable --infinite-scroll to load as you reach the last card.
Press Enter on a card to open the lightbox, s to save an image and S to save
every loaded image.

A free Pixabay API key is required. Run 'pixgallery auth guide' to get one.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			os.Setenv("NO_COLOR", "1")
		}
	},
	RunE: runGallery,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/pixgallery/config.yaml)")
	flags.StringVar(&apiKey, "api-key", "", "Pixabay API key (overrides stored keys)")
	flags.StringVarP(&profile, "profile", "p", "default", "stored API key profile")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "also write logs to this file")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	flags.BoolVar(&notifications, "notifications", true, "show result notifications")

	rootCmd.Flags().BoolVar(&infiniteScroll, "infinite-scroll", false, "load the next page when the last card is reached")

	rootCmd.SetVersionTemplate(`pixgallery {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// overrides collects the flags the user actually set
func overrides(cmd *cobra.Command) config.Overrides {
	flags := cmd.Flags()
	return config.Overrides{
		APIKey:         apiKey,
		LogLevel:       logLevel,
		LogFile:        logFile,
		NoCache:        noCache,
		Notifications:  changedBool(flags, "notifications", notifications),
		InfiniteScroll: changedBool(flags, "infinite-scroll", infiniteScroll),
	}
}

// changedBool returns &v only when the flag was given explicitly, so the
// config file keeps its say otherwise
func changedBool(flags *pflag.FlagSet, name string, v bool) *bool {
	if f := flags.Lookup(name); f == nil || !f.Changed {
		return nil
	}
	return &v
}

func runGallery(cmd *cobra.Command, args []string) error {
	// the TUI owns the terminal, so logs go to the log file only
	a, err := newApp(cmd, config.Overrides{}, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireAPIKey(); err != nil {
		return err
	}

	var mirror gallery.Notifier
	if a.cfg.Notifications.Enabled && a.cfg.Notifications.Type == "desktop" {
		mirror = ui.NewNotifier(a.cfg.Notifications, io.Discard)
	}
	queue := tui.NewNotifier(mirror)

	ctrl := gallery.NewController(a.client, gallery.Options{
		PerPage:        a.client.PerPage(),
		MaxQueryLength: a.cfg.Gallery.MaxQueryLength,
		InfiniteScroll: a.cfg.Gallery.InfiniteScroll,
		Notifier:       queue,
		Logger:         a.log,
	})

	hist, err := history.NewManager("", history.DefaultLimit, a.log)
	if err != nil {
		a.log.WithError(err).Warn("search history disabled")
		hist = nil
	}

	a.log.WithField("version", version).Info("gallery starting")
	err = tui.Run(cmd.Context(), tui.Options{
		Controller:     ctrl,
		Notifications:  queue,
		History:        hist,
		Save:           a.saveFunc(),
		Limiter:        a.limiter,
		RequestLimit:   a.cfg.RateLimit.RequestsPerWindow,
		InfiniteScroll: a.cfg.Gallery.InfiniteScroll,
		ScrollDebounce: a.cfg.Gallery.ScrollDebounce,
		Columns:        a.cfg.Gallery.Columns,
		Logger:         a.log,
	})
	logger.LogComponentStop(a.log, "gallery", "user quit")
	return err
}
