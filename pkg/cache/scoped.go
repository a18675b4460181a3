package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments or users can
// share one cache backend without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlacementKey returns the prefixed placement key.
func (k *ScopedKeyer) PlacementKey(graphHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(graphHash, opts)
}

// RouteKey returns the prefixed route key.
func (k *ScopedKeyer) RouteKey(graphHash, positionsHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(graphHash, positionsHash, opts)
}
