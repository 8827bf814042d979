//go:build integration

package places_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"waymark/internal/places"
	"waymark/internal/platform/config"
	platformredis "waymark/internal/platform/redis"
	"waymark/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *places.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(config.RedisConfig{
		URL:          s.redis.Addr,
		PoolSize:     4,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.T().Cleanup(func() { _ = client.Close() })

	s.cache = places.NewRedisCache(client.Client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	pois := []places.POI{{
		Name:           "Café de Flore",
		Category:       "cafe",
		Address:        "172 Bd Saint-Germain",
		Coordinate:     places.Coordinate{Latitude: 48.8541, Longitude: 2.3325},
		DistanceMeters: 42,
	}}

	s.Require().NoError(s.cache.Set(ctx, "k", pois, time.Minute))

	got, hit, err := s.cache.Get(ctx, "k")
	s.Require().NoError(err)
	s.Require().True(hit)
	s.Equal(pois, got)
}

func (s *RedisCacheSuite) TestMiss() {
	_, hit, err := s.cache.Get(context.Background(), "absent")
	s.Require().NoError(err)
	s.False(hit)
}

func (s *RedisCacheSuite) TestExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "short", []places.POI{{Name: "Bakery"}}, 50*time.Millisecond))

	s.Require().Eventually(func() bool {
		_, hit, err := s.cache.Get(ctx, "short")
		return err == nil && !hit
	}, 2*time.Second, 25*time.Millisecond)
}

func (s *RedisCacheSuite) TestEmptyResultCaches() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "empty", []places.POI{}, time.Minute))

	got, hit, err := s.cache.Get(ctx, "empty")
	s.Require().NoError(err)
	s.Require().True(hit)
	s.Empty(got)
}
