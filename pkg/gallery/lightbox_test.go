package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixgallery/pkg/pixabay"
)

func hits(ids ...int) []pixabay.Hit {
	out := make([]pixabay.Hit, len(ids))
	for i, id := range ids {
		out[i] = pixabay.Hit{ID: id}
	}
	return out
}

func TestLightboxNavigation(t *testing.T) {
	lb := NewLightbox()
	lb.Refresh(hits(1, 2, 3))

	_, ok := lb.Current()
	assert.False(t, ok, "closed lightbox has no current item")

	require.NoError(t, lb.Open(2))
	cur, ok := lb.Current()
	require.True(t, ok)
	assert.Equal(t, 3, cur.ID)

	lb.Next()
	cur, _ = lb.Current()
	assert.Equal(t, 1, cur.ID)

	lb.Prev()
	lb.Prev()
	cur, _ = lb.Current()
	assert.Equal(t, 2, cur.ID)

	idx, total := lb.Position()
	assert.Equal(t, 1, idx)
	assert.Equal(t, 3, total)

	lb.Close()
	assert.False(t, lb.IsOpen())
}

func TestLightboxOpenOutOfRange(t *testing.T) {
	lb := NewLightbox()
	assert.Error(t, lb.Open(0))

	lb.Refresh(hits(1))
	assert.Error(t, lb.Open(-1))
	assert.Error(t, lb.Open(1))
	assert.NoError(t, lb.Open(0))
}

func TestLightboxRefresh(t *testing.T) {
	lb := NewLightbox()
	lb.Refresh(hits(1, 2, 3))
	require.NoError(t, lb.Open(1))

	lb.Refresh(hits(1, 2, 3, 4, 5))
	cur, ok := lb.Current()
	require.True(t, ok, "refresh keeps an index that still exists")
	assert.Equal(t, 2, cur.ID)

	require.NoError(t, lb.Open(4))
	lb.Refresh(hits(1))
	assert.False(t, lb.IsOpen())
	assert.Equal(t, 3, lb.Refreshes())
}

func TestLightboxItemsAreCopied(t *testing.T) {
	src := hits(1, 2)
	lb := NewLightbox()
	lb.Refresh(src)
	src[0].ID = 99

	assert.Equal(t, 1, lb.Items()[0].ID)
}
