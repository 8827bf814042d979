package places_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waymark/internal/places"
)

// scriptedService returns the queued responses in order and counts calls.
type scriptedService struct {
	calls     int
	responses []scriptedResponse
}

type scriptedResponse struct {
	pois []places.POI
	err  error
}

func (s *scriptedService) NearbyPOI(context.Context, places.Coordinate, float64) ([]places.POI, error) {
	response := s.responses[len(s.responses)-1]
	if s.calls < len(s.responses) {
		response = s.responses[s.calls]
	}
	s.calls++
	return response.pois, response.err
}

func newFastRetrying(t *testing.T, inner places.Service) *places.RetryingClient {
	t.Helper()
	client := places.NewRetryingClient(inner)
	client.SetSleep(func(context.Context, time.Duration) error { return nil })
	return client
}

func TestRetryingClient(t *testing.T) {
	center := places.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	cafe := places.POI{Name: "Café de Flore", Category: "cafe"}

	t.Run("succeeds after throttled attempts", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{
			{err: places.ErrThrottled},
			{err: places.ErrThrottled},
			{pois: []places.POI{cafe}},
		}}
		client := newFastRetrying(t, inner)

		pois, err := client.NearbyPOI(context.Background(), center, 100)
		require.NoError(t, err)
		assert.Equal(t, []places.POI{cafe}, pois)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{{err: places.ErrThrottled}}}
		client := newFastRetrying(t, inner)

		_, err := client.NearbyPOI(context.Background(), center, 100)
		require.ErrorIs(t, err, places.ErrThrottled)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("no results is final", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{{err: places.ErrNoResults}}}
		client := newFastRetrying(t, inner)

		_, err := client.NearbyPOI(context.Background(), center, 100)
		require.ErrorIs(t, err, places.ErrNoResults)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("cancellation stops retrying", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{{err: errors.New("flaky")}}}
		client := places.NewRetryingClient(inner)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.NearbyPOI(ctx, center, 100)
		require.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestMemoryCache_TTL(t *testing.T) {
	cache := places.NewMemoryCache()
	ctx := context.Background()
	pois := []places.POI{{Name: "Bakery"}}

	require.NoError(t, cache.Set(ctx, "k", pois, 50*time.Millisecond))

	got, hit, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, pois, got)

	time.Sleep(80 * time.Millisecond)

	_, hit, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit, "entry should expire")
}

func TestCachedService(t *testing.T) {
	center := places.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	cafe := places.POI{Name: "Café de Flore"}

	t.Run("second lookup is served from cache", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{{pois: []places.POI{cafe}}}}
		cached := places.NewCachedService(inner, places.NewMemoryCache())

		for range 2 {
			pois, err := cached.NearbyPOI(context.Background(), center, 100)
			require.NoError(t, err)
			assert.Equal(t, []places.POI{cafe}, pois)
		}
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("nearby drifted fix shares the entry", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{{pois: []places.POI{cafe}}}}
		cached := places.NewCachedService(inner, places.NewMemoryCache())

		_, err := cached.NearbyPOI(context.Background(), center, 100)
		require.NoError(t, err)

		drifted := places.Coordinate{Latitude: center.Latitude + 0.00002, Longitude: center.Longitude}
		_, err = cached.NearbyPOI(context.Background(), drifted, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("different radius misses", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{{pois: []places.POI{cafe}}}}
		cached := places.NewCachedService(inner, places.NewMemoryCache())

		_, err := cached.NearbyPOI(context.Background(), center, 100)
		require.NoError(t, err)
		_, err = cached.NearbyPOI(context.Background(), center, 250)
		require.NoError(t, err)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("provider errors are not cached", func(t *testing.T) {
		inner := &scriptedService{responses: []scriptedResponse{
			{err: places.ErrNoResults},
			{pois: []places.POI{cafe}},
		}}
		cached := places.NewCachedService(inner, places.NewMemoryCache())

		_, err := cached.NearbyPOI(context.Background(), center, 100)
		require.ErrorIs(t, err, places.ErrNoResults)

		pois, err := cached.NearbyPOI(context.Background(), center, 100)
		require.NoError(t, err)
		assert.Equal(t, []places.POI{cafe}, pois)
	})
}
