package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoplink/hoplink/internal/apperr"
)

// ErrCacheMiss reports that a key was absent. Callers must distinguish this
// from infrastructure faults, which surface as CACHE_ERROR.
var ErrCacheMiss = errors.New("cache miss")

// invalidationFlagValue is the literal stored for invalidation flags.
const invalidationFlagValue = "1"

// Get reads a JSON value into dest. Returns ErrCacheMiss when the key is
// absent. Faults and undecodable payloads are wrapped as CACHE_ERROR.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "get")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "decode")
	}

	return nil
}

// Set stores a value as JSON with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "encode")
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "set")
	}

	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "delete")
	}
	return nil
}

// Exists reports whether a key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "exists")
	}
	return n > 0, nil
}

// RefreshTTL resets the TTL of an existing key.
func (c *Cache) RefreshTTL(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "expire")
	}
	return nil
}

// SetInvalidationFlag stores the literal "1" under key with the given TTL.
// The flag's presence is the signal; its value carries no information.
func (c *Cache) SetInvalidationFlag(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, invalidationFlagValue, ttl).Err(); err != nil {
		return apperr.ErrCache.Wrap(err).WithContext("key", key).WithContext("operation", "set_flag")
	}
	return nil
}
