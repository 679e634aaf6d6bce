//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passgate/internal/policy/config"
	"passgate/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	rc    *containers.RedisContainer
	inner *InMemoryStore
	cache *Cache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.rc = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(context.Background()))
	s.inner = NewInMemory()
	s.cache = NewCache(s.inner, s.rc.Client, time.Minute)
}

func (s *RedisCacheSuite) TestActive() {
	ctx := context.Background()

	s.Run("miss on an empty store returns nil", func() {
		record, err := s.cache.Active(ctx)
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("miss falls through to the inner store and warms the cache", func() {
		cfg := config.Default()
		cfg.MinLength = 14
		saved, err := s.inner.Save(ctx, cfg, "admin")
		s.Require().NoError(err)

		record, err := s.cache.Active(ctx)
		s.NoError(err)
		s.Require().NotNil(record)
		s.Equal(saved.ID, record.ID)
		s.Equal(14, record.Config.MinLength)

		// Second read must be served from Redis even after the inner
		// store moves on.
		_, err = s.inner.Save(ctx, config.Default(), "other-admin")
		s.Require().NoError(err)

		cached, err := s.cache.Active(ctx)
		s.NoError(err)
		s.Require().NotNil(cached)
		s.Equal(saved.ID, cached.ID)
	})
}

func (s *RedisCacheSuite) TestSave() {
	ctx := context.Background()

	s.Run("save writes through to the inner store and the cache", func() {
		cfg := config.Default()
		cfg.GoodStrength = 40

		saved, err := s.cache.Save(ctx, cfg, "admin")
		s.NoError(err)

		innerRecord, err := s.inner.Active(ctx)
		s.NoError(err)
		s.Require().NotNil(innerRecord)
		s.Equal(saved.ID, innerRecord.ID)

		cached, err := s.cache.Active(ctx)
		s.NoError(err)
		s.Require().NotNil(cached)
		s.Equal(saved.ID, cached.ID)
		s.Equal(float64(40), cached.Config.GoodStrength)
	})

	s.Run("save publishes the record id on the invalidation channel", func() {
		sub := s.cache.Subscribe(ctx)
		defer sub.Close()

		// Wait for the subscription before publishing.
		_, err := sub.Receive(ctx)
		s.Require().NoError(err)

		saved, err := s.cache.Save(ctx, config.Default(), "admin")
		s.NoError(err)

		select {
		case msg := <-sub.Channel():
			s.Equal(saved.ID, msg.Payload)
		case <-time.After(5 * time.Second):
			s.Fail("no invalidation message received")
		}
	})
}
