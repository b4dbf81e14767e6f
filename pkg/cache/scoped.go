package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several servers or
// report stores can share one Redis without colliding.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "sizemap:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ReportKey(reportHash string) string {
	return k.prefix + k.inner.ReportKey(reportHash)
}

func (k *ScopedKeyer) LayoutKey(reportHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(reportHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(reportHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(reportHash, opts)
}
