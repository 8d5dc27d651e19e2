package gallery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgallery/pkg/config"
	"pixgallery/pkg/gallery"
	"pixgallery/pkg/logger"
	"pixgallery/pkg/pixabay"
	"pixgallery/pkg/pixabay/pixabaytest"
)

func TestControllerAgainstFakeAPI(t *testing.T) {
	srv := pixabaytest.NewServer()
	defer srv.Close()
	srv.AddHits("mountains", 85, 1000)

	cfg := config.DefaultConfig().Pixabay
	cfg.BaseURL = srv.BaseURL()
	cfg.APIKey = pixabaytest.APIKey
	cfg.Timeout = 5 * time.Second
	client := pixabay.NewClient(cfg, nil, nil, logger.NewTestLogger())

	var notes []string
	ctrl := gallery.NewController(client, gallery.Options{
		PerPage:  client.PerPage(),
		Notifier: gallery.NotifierFunc(func(n gallery.Notification) { notes = append(notes, n.Message) }),
		Logger:   logger.NewTestLogger(),
	})

	ctx := context.Background()
	_, err := ctrl.Submit(ctx, "mountains")
	require.NoError(t, err)
	for ctrl.Snapshot().ShowLoadMore {
		_, err := ctrl.LoadMore(ctx)
		require.NoError(t, err)
	}

	snap := ctrl.Snapshot()
	assert.Len(t, snap.Items, 85)
	assert.Equal(t, 1000, snap.Items[0].ID)
	assert.Equal(t, 1084, snap.Items[84].ID)
	assert.Equal(t, 3, srv.SearchCount())
	assert.Equal(t, []string{"Hooray! We found 85 images.", gallery.MsgEndOfResults}, notes)

	// a bad key surfaces as a fetch error and clears the gallery
	ctrl.InputChanged()
	client.SetAPIKey("wrong")
	_, err = ctrl.Submit(ctx, "mountains")
	var fErr *gallery.FetchError
	require.ErrorAs(t, err, &fErr)
	assert.Empty(t, ctrl.Snapshot().Items)
	assert.Equal(t, gallery.MsgSearchError, notes[len(notes)-1])
}
