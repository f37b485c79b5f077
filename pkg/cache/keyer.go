package cache

// Keyer builds cache keys for the values loadmaster caches.
type Keyer interface {
	// ItemKey is the key for scraped workshop metadata of one item.
	ItemKey(id string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ItemKey returns "workshop:item:<id>".
func (DefaultKeyer) ItemKey(id string) string { return "workshop:item:" + id }
