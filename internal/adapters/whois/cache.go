package whois

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

const cacheKeyPrefix = "whois:"

// RecordCache is a read-through Redis cache in front of a WHOIS provider.
// Registration data changes on the scale of days, so successful lookups are
// cached with a generous TTL; failures and not-registered responses are never
// cached. Redis being down degrades to a plain pass-through.
type RecordCache struct {
	next ports.WhoisProvider
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

var _ ports.WhoisProvider = (*RecordCache)(nil)

// NewRecordCache wraps a provider with a Redis cache.
func NewRecordCache(next ports.WhoisProvider, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RecordCache {
	return &RecordCache{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "whois-cache").Logger(),
	}
}

// Lookup serves from cache when possible, falling through to the wrapped
// provider otherwise.
func (c *RecordCache) Lookup(ctx context.Context, fqdn, tld string) (*domain.WhoisRecord, error) {
	key := cacheKeyPrefix + fqdn

	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var rec domain.WhoisRecord
		if jsonErr := json.Unmarshal(data, &rec); jsonErr == nil {
			return &rec, nil
		}
		// Unreadable entry: drop it and re-resolve.
		c.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Debug().Err(err).Str("domain", fqdn).Msg("cache read failed")
	}

	rec, err := c.next.Lookup(ctx, fqdn, tld)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(rec); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.log.Debug().Err(setErr).Str("domain", fqdn).Msg("cache write failed")
		}
	}
	return rec, nil
}
