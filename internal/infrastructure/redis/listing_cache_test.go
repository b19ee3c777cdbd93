package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bike-resale-api/internal/domain"
)

func newTestCache(t *testing.T) (*ListingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewListingCache(rdb, time.Minute), mr
}

func TestPageKey(t *testing.T) {
	a := PageKey(3, `brand="Honda";`, 2, 10)
	assert.Regexp(t, `^listings:v3:[0-9a-f]{16}:p2:l10$`, a)

	assert.Equal(t, a, PageKey(3, `brand="Honda";`, 2, 10))
	assert.NotEqual(t, a, PageKey(4, `brand="Honda";`, 2, 10))
	assert.NotEqual(t, a, PageKey(3, `brand="Yamaha";`, 2, 10))
	assert.NotEqual(t, a, PageKey(3, `brand="Honda";`, 3, 10))
}

func TestListingCache_GenerationStartsAtZero(t *testing.T) {
	c, _ := newTestCache(t)
	gen, err := c.Generation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)
}

func TestListingCache_MissThenRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	p, hit, err := c.GetPage(ctx, 0, "", 1, 10)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, p)

	want := &domain.BikePage{Total: 1, Page: 1, Limit: 10, TotalPages: 1, Bikes: []domain.Bike{{BikeID: "b1", Brand: "Honda", Price: 90000}}}
	require.NoError(t, c.SetPage(ctx, 0, "", 1, 10, want))

	got, hit, err := c.GetPage(ctx, 0, "", 1, 10)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, want.Total, got.Total)
	assert.Equal(t, "b1", got.Bikes[0].BikeID)

	assert.Equal(t, time.Minute, mr.TTL(PageKey(0, "", 1, 10)))
}

func TestListingCache_InvalidateOrphansExistingPages(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetPage(ctx, 0, "", 1, 10, &domain.BikePage{Total: 1, Bikes: []domain.Bike{}}))
	require.NoError(t, c.Invalidate(ctx))

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	_, hit, err := c.GetPage(ctx, gen, "", 1, 10)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestListingCache_PageComputedBeforeInvalidateIsNeverServedAfter(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	_, hit, err := c.GetPage(ctx, gen, "", 1, 10)
	require.NoError(t, err)
	require.False(t, hit)

	// A listing write lands between the miss and the cache fill.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.SetPage(ctx, gen, "", 1, 10, &domain.BikePage{Total: 1, Bikes: []domain.Bike{}}))

	next, err := c.Generation(ctx)
	require.NoError(t, err)
	_, hit, err = c.GetPage(ctx, next, "", 1, 10)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestListingCache_ServerDownSurfacesErrors(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	ctx := context.Background()

	_, err := c.Generation(ctx)
	assert.Error(t, err)
	_, _, err = c.GetPage(ctx, 0, "", 1, 10)
	assert.Error(t, err)
}
