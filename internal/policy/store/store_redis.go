package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"passgate/internal/policy/config"
	"passgate/internal/policy/rules"
)

const (
	// cacheKey holds the serialized active policy record.
	cacheKey = "passgate:policy:active"

	// InvalidationChannel carries policy-change notifications so other
	// instances drop their snapshot and reload from the store.
	InvalidationChannel = "passgate:policy:invalidate"
)

// Cache is a Redis read-through layer in front of another Store. Reads
// hit Redis first and fall back to the inner store on a miss; writes go
// to the inner store, refresh the cache, and publish an invalidation
// message for other instances.
type Cache struct {
	inner  Store
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache wraps inner with a Redis cache. A zero ttl caches records
// without expiry; invalidation messages keep instances consistent.
func NewCache(inner Store, client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{inner: inner, client: client, ttl: ttl}
}

func (c *Cache) Active(ctx context.Context) (*Record, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		record, decodeErr := decodeRecord(raw)
		if decodeErr == nil {
			return record, nil
		}
		// Stale or corrupt payload falls through to the inner store.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read cached policy: %w", err)
	}

	record, err := c.inner.Active(ctx)
	if err != nil {
		return nil, err
	}
	if record != nil {
		c.put(ctx, record)
	}
	return record, nil
}

func (c *Cache) Save(ctx context.Context, cfg config.Config, updatedBy string) (*Record, error) {
	record, err := c.inner.Save(ctx, cfg, updatedBy)
	if err != nil {
		return nil, err
	}

	c.put(ctx, record)
	if err := c.client.Publish(ctx, InvalidationChannel, record.ID).Err(); err != nil {
		return record, fmt.Errorf("publish policy invalidation: %w", err)
	}
	return record, nil
}

// Subscribe returns a pubsub subscription on the invalidation channel.
// Callers receive the new policy record ID per message and reload via
// Active.
func (c *Cache) Subscribe(ctx context.Context) *redis.PubSub {
	return c.client.Subscribe(ctx, InvalidationChannel)
}

func (c *Cache) put(ctx context.Context, record *Record) {
	raw, err := encodeRecord(record)
	if err != nil {
		return
	}
	// Cache refresh is best effort; the inner store stays authoritative.
	_ = c.client.Set(ctx, cacheKey, raw, c.ttl).Err()
}

// cachedRecord is the Redis wire form. Character rules travel in the
// compact textual form so the payload stays debuggable with redis-cli.
type cachedRecord struct {
	ID                          string    `json:"id"`
	MinLength                   int       `json:"min_length"`
	MaxLength                   int       `json:"max_length"`
	CharacterRules              string    `json:"character_rules"`
	MinCharacteristics          int       `json:"min_characteristics"`
	MaxRepeatingCharacters      int       `json:"max_repeating_characters"`
	DictionarySources           []string  `json:"dictionary_sources,omitempty"`
	DictionaryCaseSensitive     bool      `json:"dictionary_case_sensitive"`
	GoodStrength                float64   `json:"good_strength"`
	ExpirationDays              int       `json:"expiration_days"`
	ExpirationGraceLength       int       `json:"expiration_grace_length"`
	ExpirationOverridesStrength bool      `json:"expiration_overrides_strength"`
	UpdatedBy                   string    `json:"updated_by"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

func encodeRecord(record *Record) ([]byte, error) {
	return json.Marshal(cachedRecord{
		ID:                          record.ID,
		MinLength:                   record.Config.MinLength,
		MaxLength:                   record.Config.MaxLength,
		CharacterRules:              rules.Format(record.Config.CharacterRules),
		MinCharacteristics:          record.Config.MinCharacteristics,
		MaxRepeatingCharacters:      record.Config.MaxRepeatingCharacters,
		DictionarySources:           record.Config.DictionarySources,
		DictionaryCaseSensitive:     record.Config.DictionaryCaseSensitive,
		GoodStrength:                record.Config.GoodStrength,
		ExpirationDays:              record.Config.ExpirationDays,
		ExpirationGraceLength:       record.Config.ExpirationGraceLength,
		ExpirationOverridesStrength: record.Config.ExpirationOverridesStrength,
		UpdatedBy:                   record.UpdatedBy,
		UpdatedAt:                   record.UpdatedAt,
	})
}

func decodeRecord(raw []byte) (*Record, error) {
	var cached cachedRecord
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached policy: %w", err)
	}

	record := &Record{
		ID:        cached.ID,
		UpdatedBy: cached.UpdatedBy,
		UpdatedAt: cached.UpdatedAt,
	}
	record.Config.MinLength = cached.MinLength
	record.Config.MaxLength = cached.MaxLength
	record.Config.MinCharacteristics = cached.MinCharacteristics
	record.Config.MaxRepeatingCharacters = cached.MaxRepeatingCharacters
	record.Config.DictionarySources = cached.DictionarySources
	record.Config.DictionaryCaseSensitive = cached.DictionaryCaseSensitive
	record.Config.GoodStrength = cached.GoodStrength
	record.Config.ExpirationDays = cached.ExpirationDays
	record.Config.ExpirationGraceLength = cached.ExpirationGraceLength
	record.Config.ExpirationOverridesStrength = cached.ExpirationOverridesStrength

	if cached.CharacterRules != "" {
		parsed, err := rules.Parse(cached.CharacterRules)
		if err != nil {
			return nil, fmt.Errorf("parse cached character rules: %w", err)
		}
		record.Config.CharacterRules = parsed
	}
	return record, nil
}
