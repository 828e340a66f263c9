// Package cache stores rendered screenshots and settled snapshots so that
// repeated CLI and server requests skip work they have already done.
//
// Two backends ship with the package: [FileCache] for the CLI, rooted in the
// user cache directory, and [RedisCache] for servers sharing one cache.
// [NullCache] disables caching. [Instrument] wraps any backend with
// observability hooks.
//
// Keys are built by a [Keyer] so that every entry is addressed by a hash of
// everything that influences its content.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default expiry per entry kind.
const (
	TTLSettle = 7 * 24 * time.Hour
	TTLRender = 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// SettleKeyOpts lists everything besides the manifest that determines a
// settled snapshot.
type SettleKeyOpts struct {
	Frames     int    `json:"frames"`
	Seed       uint64 `json:"seed"`
	ConfigHash string `json:"config_hash"`
}

// RenderKeyOpts lists everything besides the snapshot that determines a
// rendered screenshot.
type RenderKeyOpts struct {
	Format string `json:"format"`
	Engine string `json:"engine"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Labels bool   `json:"labels"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SettleKey addresses a snapshot produced by running a manifest headless.
	SettleKey(manifestHash string, opts SettleKeyOpts) string

	// RenderKey addresses a screenshot of a snapshot.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes key inputs under a fixed prefix per kind.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SettleKey returns "settle:<hash>".
func (DefaultKeyer) SettleKey(manifestHash string, opts SettleKeyOpts) string {
	return hashKey("settle", manifestHash, opts)
}

// RenderKey returns "render:<hash>".
func (DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return hashKey("render", snapshotHash, opts)
}
