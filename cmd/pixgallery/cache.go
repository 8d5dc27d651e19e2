package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pixgallery/pkg/cache"
	"pixgallery/pkg/config"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/ui"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
	Long: `Search responses are cached on disk for the configured TTL (24 hours by
default) so repeated searches do not count against the API quota.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and entry counts",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var clearExpired bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached responses",
	Long:  `Delete every cached response, or with --expired only those past their TTL.`,
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().BoolVar(&clearExpired, "expired", false, "only delete expired responses")
}

// openCache opens the cache even when it is disabled for searches
func openCache(cmd *cobra.Command) (*cache.Store, *config.Config, error) {
	cfg, err := config.Load(configFile, overrides(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL, cfg.Cache.MemoryEntries, logger.GetLogger())
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, cfg, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats()
	if err != nil {
		return err
	}

	ui.PrintInfo("Cache file", cfg.Cache.Path)
	ui.PrintInfo("Enabled", fmt.Sprintf("%v", cfg.Cache.Enabled))
	ui.PrintInfo("TTL", cfg.Cache.TTL.String())
	ui.PrintInfo("Entries", fmt.Sprintf("%d (%d expired)", st.Entries, st.Expired))
	ui.PrintInfo("Stored size", ui.FormatBytes(st.CompressedBytes))
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, _, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if clearExpired {
		n, err := store.PurgeExpired()
		if err != nil {
			ui.PrintError("Failed to purge expired responses", err)
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %d expired responses", n))
		return nil
	}

	st, err := store.Stats()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		ui.PrintError("Failed to clear cache", err)
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed %d cached responses", st.Entries))
	return nil
}
