package analysis

import (
	"sort"
	"strings"

	"github.com/jfahler/loadmasterbot/pkg/mod"
)

// Category names, in display order.
const (
	CategoryMaps          = "maps"
	CategoryWeapons       = "weapons"
	CategoryVehicles      = "vehicles"
	CategoryUnits         = "units"
	CategoryCompatibility = "compatibility"
	CategoryOther         = "other"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryMaps, CategoryWeapons, CategoryVehicles,
	CategoryUnits, CategoryCompatibility, CategoryOther,
}

// categoryKeywords is checked in order; the first category with a keyword
// contained in the lowercase item name wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryMaps, []string{"map", "terrain", "island", "world"}},
	{CategoryWeapons, []string{"weapon", "gun", "rifle", "pistol", "ammo"}},
	{CategoryVehicles, []string{"vehicle", "car", "tank", "helicopter", "plane", "aircraft"}},
	{CategoryUnits, []string{"unit", "soldier", "infantry", "uniform"}},
	{CategoryCompatibility, []string{"compat", "patch"}},
}

// Categorize returns a rough name-based grouping of item ids. Every category
// is present in the result; ids within a category are sorted.
func Categorize(items map[string]mod.Item) map[string][]string {
	out := make(map[string][]string, len(Categories))
	for _, c := range Categories {
		out[c] = []string{}
	}
	for id, it := range items {
		c := categoryOf(it.Name)
		out[c] = append(out[c], id)
	}
	for _, ids := range out {
		sort.Strings(ids)
	}
	return out
}

func categoryOf(name string) string {
	lower := strings.ToLower(name)
	for _, ck := range categoryKeywords {
		for _, k := range ck.keywords {
			if strings.Contains(lower, k) {
				return ck.category
			}
		}
	}
	return CategoryOther
}
