package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Cache access is wrapped so every failure degrades to the store of record.

func cacheGet(ctx context.Context, cache ResponseCache, key string, out any) bool {
	v, ok, err := cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache: get %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		log.Printf("cache: decode %s: %v", key, err)
		return false
	}
	return true
}

func cacheSet(ctx context.Context, cache ResponseCache, key string, value any, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	if err := cache.Set(ctx, key, string(b), ttl); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

// cacheSetRef stores the canonical key name under a reference key.
func cacheSetRef(ctx context.Context, cache ResponseCache, refKey, canonical string, ttl time.Duration) {
	if err := cache.Set(ctx, refKey, canonical, ttl); err != nil {
		log.Printf("cache: set ref %s: %v", refKey, err)
	}
}

func cacheDelete(ctx context.Context, cache ResponseCache, keys ...string) {
	if err := cache.Delete(ctx, keys...); err != nil {
		log.Printf("cache: delete: %v", err)
	}
}

func cacheDeletePrefix(ctx context.Context, cache ResponseCache, prefix string) {
	if err := cache.DeleteByPrefix(ctx, prefix); err != nil {
		log.Printf("cache: delete prefix %s: %v", prefix, err)
	}
}
