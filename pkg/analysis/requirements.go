package analysis

import (
	"sort"

	"github.com/jfahler/loadmasterbot/pkg/mod"
)

// Missing is one workshop dependency absent from the list.
type Missing struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	MissingID string `json:"missing_id"`
}

// Requirements is the result of [CheckRequirements].
type Requirements struct {
	AllMet  bool      `json:"all_met"`
	Missing []Missing `json:"missing"`
}

// CheckRequirements reports every numeric dependency that is not itself a key
// of items. Expansion-name dependencies are left to [CheckCompatibility].
// Missing entries are ordered by item id, then by missing id.
func CheckRequirements(items map[string]mod.Item) Requirements {
	res := Requirements{Missing: []Missing{}}
	for id, it := range items {
		seen := map[string]bool{}
		for _, dep := range it.Dependencies {
			if !isIdentifier(dep) || seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := items[dep]; !ok {
				res.Missing = append(res.Missing, Missing{ItemID: id, ItemName: it.Name, MissingID: dep})
			}
		}
	}
	sort.Slice(res.Missing, func(i, j int) bool {
		a, b := res.Missing[i], res.Missing[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.MissingID < b.MissingID
	})
	res.AllMet = len(res.Missing) == 0
	return res
}

// isIdentifier reports whether a dependency token is a workshop id rather
// than an expansion name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
