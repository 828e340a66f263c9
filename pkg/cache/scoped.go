package cache

// ScopedKeyer wraps a Keyer with a prefix so that several frame servers can
// share one Redis without reading each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "studio-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SettleKey generates a prefixed key for settled snapshots.
func (k *ScopedKeyer) SettleKey(manifestHash string, opts SettleKeyOpts) string {
	return k.prefix + k.inner.SettleKey(manifestHash, opts)
}

// RenderKey generates a prefixed key for screenshots.
func (k *ScopedKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(snapshotHash, opts)
}
