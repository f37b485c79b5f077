package analysis

import (
	"sort"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/mod"
)

// Compatibility reports which expansions a mod list already covers and which
// ones its items ask for without the compatibility item being present.
type Compatibility struct {
	// Detected holds expansion names considered installed, in catalog order.
	Detected []string `json:"detected"`

	// StillRequired holds names required by some item but not detected, sorted.
	StillRequired []string `json:"still_required"`

	// RequiredBy maps each still-required name to the sorted item names that
	// ask for it.
	RequiredBy map[string][]string `json:"required_by,omitempty"`

	// HasIssues is true iff StillRequired is non-empty.
	HasIssues bool `json:"has_issues"`
}

// CheckCompatibility cross-references the catalog against the identifier set
// and the items' declared requirements.
//
// An expansion is detected according to rule. It is required when any item
// lists it among its dependencies or in its required or optional expansion
// buckets. An expansion that is both detected and required is reported only
// as detected.
func CheckCompatibility(ids []string, items map[string]mod.Item, cat *catalog.Catalog, rule catalog.Rule) Compatibility {
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}

	res := Compatibility{Detected: []string{}, StillRequired: []string{}}
	detected := map[string]bool{}
	for _, e := range cat.Expansions {
		if e.DetectedIn(present, rule) {
			detected[e.Key] = true
			res.Detected = append(res.Detected, e.Name)
		}
	}

	requiredBy := map[string]map[string]bool{}
	mark := func(token, itemName string) {
		e, ok := cat.Match(token)
		if !ok || detected[e.Key] {
			return
		}
		if requiredBy[e.Name] == nil {
			requiredBy[e.Name] = map[string]bool{}
		}
		requiredBy[e.Name][itemName] = true
	}

	for _, it := range items {
		for _, dep := range it.Dependencies {
			if isIdentifier(dep) {
				continue
			}
			mark(dep, it.Name)
		}
		for _, name := range it.Expansions.Required {
			mark(name, it.Name)
		}
		for _, name := range it.Expansions.Optional {
			mark(name, it.Name)
		}
	}

	if len(requiredBy) > 0 {
		res.RequiredBy = make(map[string][]string, len(requiredBy))
	}
	for name, by := range requiredBy {
		res.StillRequired = append(res.StillRequired, name)
		res.RequiredBy[name] = sortedKeys(by)
	}
	sort.Strings(res.StillRequired)
	res.HasIssues = len(res.StillRequired) > 0
	return res
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
