package cache

// ScopedKeyer prefixes every key from an inner Keyer. Deployments that share
// one Redis database set redis.prefix so their item entries do not collide.
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

func (k *ScopedKeyer) ItemKey(id string) string {
	return k.prefix + k.inner.ItemKey(id)
}
