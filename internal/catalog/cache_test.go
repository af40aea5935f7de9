package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

type countingSource struct {
	items []catalog.Item
	err   error
	calls int
}

func (s *countingSource) Load(context.Context) ([]catalog.Item, error) {
	s.calls++
	return s.items, s.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedSourceServesFromRedis(t *testing.T) {
	mr, client := newRedis(t)
	origin := &countingSource{items: []catalog.Item{{ID: "SETUP", PricingType: catalog.PricingFlat, DefaultPrice: 200}}}
	src := catalog.CachedSource{Origin: origin, Cache: catalog.NewCache(client, time.Minute)}
	ctx := context.Background()

	first, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.True(t, mr.Exists(catalog.ItemsCacheKey))

	second, err := src.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, origin.calls)

	require.NoError(t, src.Refresh(ctx))
	_, err = src.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, origin.calls)
}

func TestCachedSourceWithoutRedisFallsBack(t *testing.T) {
	origin := &countingSource{items: []catalog.Item{{ID: "A"}}}
	src := catalog.CachedSource{Origin: origin, Cache: catalog.NewCache(nil, time.Minute)}
	items, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	failing := catalog.CachedSource{Origin: &countingSource{err: errors.New("boom")}, Cache: catalog.NewCache(nil, 0)}
	_, err = failing.Load(context.Background())
	require.Error(t, err)
}
