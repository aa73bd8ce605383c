// Package cache is a thin JSON-over-Redis cache. All helpers degrade to
// no-ops when Redis is unavailable so the store remains the source of truth.
package cache

import (
	"context"
	"fmt"
	"time"

	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/cremaze/cremaze/config"
)

var RDB *redis.Client
var Ctx = context.Background()

// Connect initialises the Redis client and verifies the connection.
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil // mark unavailable so Get/Set/Del no-op safely
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(Ctx, key).Result()
	if err != nil {
		return false
	}

	return json.Unmarshal([]byte(val), dest) == nil
}

// Set stores value under key for the given TTL.
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return RDB.Set(Ctx, key, data, ttl).Err()
}

// SetNX stores value only when the key does not already exist.
// Returns true when the value was stored (idempotency-key reservation).
func SetNX(key string, value interface{}, ttl time.Duration) (bool, error) {
	if RDB == nil {
		return true, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	return RDB.SetNX(Ctx, key, data, ttl).Result()
}

// Del removes one or more keys.
func Del(keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}

// Forget is an alias for Del.
func Forget(key string) error {
	return Del(key)
}
