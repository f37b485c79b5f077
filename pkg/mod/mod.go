// Package mod defines the workshop item records that flow through analysis.
package mod

import (
	"fmt"
	"time"
)

// Status tells genuine metadata apart from a placeholder.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFallback Status = "fallback"
)

// Expansions groups expansion names mentioned on an item page by how the
// page phrases the relationship. A name appears in at most one bucket.
type Expansions struct {
	Required   []string `json:"required,omitempty"`
	Optional   []string `json:"optional,omitempty"`
	Compatible []string `json:"compatible,omitempty"`
}

// Empty reports whether no expansion was mentioned.
func (e Expansions) Empty() bool {
	return len(e.Required) == 0 && len(e.Optional) == 0 && len(e.Compatible) == 0
}

// Metadata describes one workshop item.
//
// Dependencies mixes workshop ids (purely numeric) and expansion names.
// SizeGB is nil when no size could be determined; it is never defaulted here.
// Records are treated as immutable once returned by the fetcher.
type Metadata struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SizeGB       *float64   `json:"size_gb,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Expansions   Expansions `json:"expansions"`
	URL          string     `json:"url,omitempty"`
	Description  string     `json:"description,omitempty"`
	FetchedAt    time.Time  `json:"fetched_at"`
}

// HasSize reports whether the size is known.
func (m Metadata) HasSize() bool { return m.SizeGB != nil }

// Item is the enrichment result for one identifier: real metadata, or a
// placeholder with the reason the fetch failed.
type Item struct {
	Metadata
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// OK wraps fetched metadata.
func OK(m Metadata) Item {
	return Item{Metadata: m, Status: StatusOK}
}

// Fallback wraps a placeholder record.
func Fallback(m Metadata, reason string) Item {
	return Item{Metadata: m, Status: StatusFallback, Reason: reason}
}

// IsFallback reports whether the item is a placeholder.
func (it Item) IsFallback() bool { return it.Status == StatusFallback }

// PlaceholderName is the synthesized label for an item whose page yielded no
// title.
func PlaceholderName(id string) string {
	return fmt.Sprintf("Item %s", id)
}

// SizeLookup resolves static sizes by workshop id.
type SizeLookup interface {
	KnownSize(id string) (float64, bool)
}

// Placeholder builds the minimal record substituted when enrichment fails:
// synthesized name, size from the static table if present, nothing else.
func Placeholder(id, baseURL string, sizes SizeLookup) Metadata {
	m := Metadata{
		ID:   id,
		Name: PlaceholderName(id),
	}
	if baseURL != "" {
		m.URL = baseURL + id
	}
	if sizes != nil {
		if gb, ok := sizes.KnownSize(id); ok {
			m.SizeGB = Float(gb)
		}
	}
	return m
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
