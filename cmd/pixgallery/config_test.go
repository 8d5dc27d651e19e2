package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgallery/pkg/config"
)

func TestExampleConfigLoads(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv(config.EnvPrefix+"API_KEY", "")
	t.Setenv(config.EnvPrefix+"LOG_LEVEL", "")

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0600))

	cfg, err := config.Load(path, config.Overrides{})
	require.NoError(t, err)

	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.Pixabay.PerPage, cfg.Pixabay.PerPage)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, defaults.Cache.Path, cfg.Cache.Path)
	assert.Equal(t, 300*time.Millisecond, cfg.Gallery.ScrollDebounce)
	assert.Equal(t, 100, cfg.Gallery.MaxQueryLength)
	assert.False(t, cfg.Gallery.InfiniteScroll)
}

func TestChangedBool(t *testing.T) {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	var on bool
	cmd.Flags().BoolVar(&on, "infinite-scroll", false, "")

	assert.Nil(t, changedBool(cmd.Flags(), "infinite-scroll", on))
	assert.Nil(t, changedBool(cmd.Flags(), "missing", on))

	require.NoError(t, cmd.Flags().Set("infinite-scroll", "true"))
	got := changedBool(cmd.Flags(), "infinite-scroll", on)
	require.NotNil(t, got)
	assert.True(t, *got)
}
