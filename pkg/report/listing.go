package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jfahler/loadmasterbot/pkg/mod"
)

// MaxNameLen is the longest name printed in a listing.
const MaxNameLen = 50

// DefaultTop is the listing length used when n <= 0.
const DefaultTop = 30

// Line is one row of a listing.
type Line struct {
	Rank   int      `json:"rank"`
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	SizeGB *float64 `json:"size_gb,omitempty"`
}

// Listing is the head of an item list ordered by size.
type Listing struct {
	Lines     []Line `json:"lines"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
}

// TopBySize orders items largest first and keeps the first n. Ties, and
// items of unknown size, are ordered by id.
func TopBySize(items map[string]mod.Item, n int) Listing {
	if n <= 0 {
		n = DefaultTop
	}

	all := make([]mod.Item, 0, len(items))
	for _, it := range items {
		all = append(all, it)
	}
	slices.SortFunc(all, func(a, b mod.Item) int {
		if c := cmp.Compare(sizeOf(b), sizeOf(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	shown := min(n, len(all))
	l := Listing{
		Lines:     make([]Line, shown),
		Total:     len(all),
		Remaining: len(all) - shown,
	}
	for i, it := range all[:shown] {
		l.Lines[i] = Line{Rank: i + 1, ID: it.ID, Name: Truncate(it.Name, MaxNameLen), SizeGB: it.SizeGB}
	}
	return l
}

func sizeOf(it mod.Item) float64 {
	if it.SizeGB == nil {
		return -1
	}
	return *it.SizeGB
}

// Truncate shortens s to at most limit runes, ending in "..." when cut.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}

// Text renders the listing one item per line.
func (l Listing) Text() string {
	var b strings.Builder
	for _, line := range l.Lines {
		size := "Unknown"
		if line.SizeGB != nil {
			size = fmt.Sprintf("%.1fGB", *line.SizeGB)
		}
		fmt.Fprintf(&b, "%2d. %s (%s)\n", line.Rank, line.Name, size)
	}
	if l.Remaining > 0 {
		fmt.Fprintf(&b, "\n... and %d more mods\n", l.Remaining)
	}
	return b.String()
}
