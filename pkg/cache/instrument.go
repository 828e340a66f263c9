package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/comboom/pkg/observability"
)

// Instrument reports every hit, miss and write of c to the registered
// observability cache hooks, labeled by key kind.
func Instrument(c Cache) Cache {
	if _, ok := c.(instrumented); ok {
		return c
	}
	return instrumented{c}
}

type instrumented struct{ Cache }

func (i instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := i.Cache.Get(ctx, key)
	switch {
	case err != nil:
	case ok:
		observability.Cache().OnCacheHit(ctx, keyType(key))
	default:
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}
	return data, ok, err
}

func (i instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := i.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// keyType extracts the kind segment of a key, the one before its hash:
// "scope:render:abc" is "render".
func keyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "unknown"
	}
	return key[strings.LastIndexByte(key[:i], ':')+1 : i]
}
