// Package catalog holds the static reference data: known expansions and the
// known-size fallback table.
//
// The default catalog is embedded at build time and may be replaced by a TOML
// file at startup (catalog.path). It is read-only after loading and safe for
// concurrent use.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultTOML []byte

// minMatchLen is the shortest token that may match an expansion by substring.
// Shorter tokens ("DLC", "GM") produce too many false positives.
const minMatchLen = 4

// Expansion is one creator DLC.
type Expansion struct {
	Key         string   `toml:"key" json:"key"`
	Name        string   `toml:"name" json:"name"`
	CompanionID string   `toml:"companion_id" json:"companion_id"`
	BaseIDs     []string `toml:"base_ids" json:"base_ids,omitempty"`
	Keywords    []string `toml:"keywords" json:"keywords,omitempty"`
	URL         string   `toml:"url" json:"url,omitempty"`
}

// DetectedIn reports whether the expansion counts as installed given the set
// of identifiers in a mod list.
func (e Expansion) DetectedIn(ids map[string]bool, rule Rule) bool {
	if rule == RuleBaseIDs {
		for _, id := range e.BaseIDs {
			if ids[id] {
				return true
			}
		}
		return false
	}
	return e.CompanionID != "" && ids[e.CompanionID]
}

// phrases returns the lowercase name followed by the keywords.
func (e Expansion) phrases() []string {
	out := make([]string, 0, len(e.Keywords)+1)
	out = append(out, strings.ToLower(e.Name))
	for _, k := range e.Keywords {
		out = append(out, strings.ToLower(k))
	}
	return out
}

// Catalog is the loaded reference data.
type Catalog struct {
	Expansions []Expansion        `toml:"expansion"`
	KnownSizes map[string]float64 `toml:"known_sizes"`

	byKey map[string]*Expansion
}

// Parse decodes a catalog from TOML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a catalog file. An empty path returns [Default].
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultTOML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the embedded catalog.
func Default() *Catalog { return defaultCatalog() }

func (c *Catalog) index() error {
	c.byKey = make(map[string]*Expansion, len(c.Expansions))
	for i := range c.Expansions {
		e := &c.Expansions[i]
		if e.Key == "" || e.Name == "" {
			return fmt.Errorf("catalog expansion %d: key and name are required", i)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return fmt.Errorf("catalog expansion %q defined twice", e.Key)
		}
		c.byKey[e.Key] = e
	}
	if c.KnownSizes == nil {
		c.KnownSizes = map[string]float64{}
	}
	return nil
}

// Lookup returns the expansion with the given key.
func (c *Catalog) Lookup(key string) (*Expansion, bool) {
	e, ok := c.byKey[key]
	return e, ok
}

// KnownSize returns the static size in GB for a workshop id.
func (c *Catalog) KnownSize(id string) (float64, bool) {
	gb, ok := c.KnownSizes[id]
	return gb, ok
}

// Match resolves a free-form token (a dependency entry, a phrase captured from
// a page) to an expansion. Matching is case-insensitive containment in either
// direction against the expansion name and its keywords. The first expansion
// in catalog order wins.
func (c *Catalog) Match(token string) (*Expansion, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if len(t) < minMatchLen {
		return nil, false
	}
	for i := range c.Expansions {
		e := &c.Expansions[i]
		for _, p := range e.phrases() {
			if strings.Contains(t, p) || strings.Contains(p, t) {
				return e, true
			}
		}
	}
	return nil, false
}

// Mentions returns every expansion whose name or keyword appears in text, in
// catalog order.
func (c *Catalog) Mentions(text string) []*Expansion {
	lower := strings.ToLower(text)
	var out []*Expansion
	for i := range c.Expansions {
		e := &c.Expansions[i]
		for _, p := range e.phrases() {
			if len(p) >= minMatchLen && strings.Contains(lower, p) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Keys returns all expansion keys, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
