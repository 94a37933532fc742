package cache

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes keys by build
// version so that previews rendered by an older binary are never reused.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
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

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(layoutHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(layoutHash, opts)
}
