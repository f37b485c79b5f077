package analysis

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfahler/loadmasterbot/pkg/catalog"
	"github.com/jfahler/loadmasterbot/pkg/mod"
)

func item(id, name string, size *float64, deps ...string) mod.Item {
	return mod.OK(mod.Metadata{ID: id, Name: name, SizeGB: size, Dependencies: deps})
}

func itemsOf(list ...mod.Item) map[string]mod.Item {
	m := make(map[string]mod.Item, len(list))
	for _, it := range list {
		m[it.ID] = it
	}
	return m
}

// =============================================================================
// Compatibility
// =============================================================================

func TestCheckCompatibilityRequiredNotDetected(t *testing.T) {
	x := item("100", "Cold War Rearmed", nil)
	x.Expansions.Required = []string{"Global Mobilization"}
	items := itemsOf(x)

	got := CheckCompatibility([]string{"100"}, items, catalog.Default(), catalog.RuleCompanion)

	assert.Equal(t, []string{"Global Mobilization - Cold War Germany"}, got.StillRequired)
	assert.Equal(t, []string{"Cold War Rearmed"}, got.RequiredBy["Global Mobilization - Cold War Germany"])
	assert.Empty(t, got.Detected)
	assert.True(t, got.HasIssues)
}

func TestCheckCompatibilityDetectedWinsTie(t *testing.T) {
	x := item("100", "Cold War Rearmed", nil, "Global Mobilization - Cold War Germany")
	ids := []string{"100", "1776428269"}
	items := itemsOf(x, item("1776428269", "GM Compat Data", nil))

	got := CheckCompatibility(ids, items, catalog.Default(), catalog.RuleCompanion)

	assert.Equal(t, []string{"Global Mobilization - Cold War Germany"}, got.Detected)
	assert.Empty(t, got.StillRequired)
	assert.Nil(t, got.RequiredBy)
	assert.False(t, got.HasIssues)
}

func TestCheckCompatibilityRules(t *testing.T) {
	ids := []string{"1808728802"} // GM base id, no companion
	x := item("1", "Needs GM", nil)
	x.Expansions.Optional = []string{"Global Mobilization - Cold War Germany"}
	items := itemsOf(x)

	companion := CheckCompatibility(ids, items, catalog.Default(), catalog.RuleCompanion)
	assert.Empty(t, companion.Detected)
	assert.True(t, companion.HasIssues, "optional mentions count as required")

	base := CheckCompatibility(ids, items, catalog.Default(), catalog.RuleBaseIDs)
	assert.Equal(t, []string{"Global Mobilization - Cold War Germany"}, base.Detected)
	assert.False(t, base.HasIssues)
}

func TestCheckCompatibilityIgnoresCompatibleBucketAndIDs(t *testing.T) {
	x := item("1", "Terrain Pack", nil, "450814997")
	x.Expansions.Compatible = []string{"Western Sahara"}
	got := CheckCompatibility([]string{"1"}, itemsOf(x), catalog.Default(), catalog.RuleCompanion)

	assert.False(t, got.HasIssues)
	assert.Empty(t, got.StillRequired)
}

func TestCheckCompatibilitySortedAndMerged(t *testing.T) {
	a := item("1", "B Mod", nil, "Western Sahara", "CSLA Iron Curtain")
	b := item("2", "A Mod", nil)
	b.Expansions.Required = []string{"Western Sahara"}
	got := CheckCompatibility([]string{"1", "2"}, itemsOf(a, b), catalog.Default(), catalog.RuleCompanion)

	assert.Equal(t, []string{"CSLA Iron Curtain", "Western Sahara"}, got.StillRequired)
	assert.Equal(t, []string{"A Mod", "B Mod"}, got.RequiredBy["Western Sahara"])
}

// =============================================================================
// Requirements
// =============================================================================

func TestCheckRequirementsMissing(t *testing.T) {
	y := item("200", "Y", nil, "999999999", "Global Mobilization")
	got := CheckRequirements(itemsOf(y))

	require.Len(t, got.Missing, 1)
	assert.Equal(t, Missing{ItemID: "200", ItemName: "Y", MissingID: "999999999"}, got.Missing[0])
	assert.False(t, got.AllMet)
}

func TestCheckRequirementsAllMet(t *testing.T) {
	items := itemsOf(
		item("1", "CBA_A3", nil),
		item("2", "ACE", nil, "1", "1"),
	)
	got := CheckRequirements(items)
	assert.True(t, got.AllMet)
	assert.Empty(t, got.Missing)
	assert.NotNil(t, got.Missing)
}

func TestCheckRequirementsOrdering(t *testing.T) {
	items := itemsOf(
		item("b", "B", nil, "9", "8"),
		item("a", "A", nil, "7"),
	)
	got := CheckRequirements(items)
	var order []string
	for _, m := range got.Missing {
		order = append(order, m.ItemID+":"+m.MissingID)
	}
	assert.Equal(t, []string{"a:7", "b:8", "b:9"}, order)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, isIdentifier("463939057"))
	assert.False(t, isIdentifier(""))
	assert.False(t, isIdentifier("Western Sahara"))
	assert.False(t, isIdentifier("12a"))
}

// =============================================================================
// Diff
// =============================================================================

func TestCompareScenario(t *testing.T) {
	d := Compare([]string{"B", "C"}, []string{"A", "B"})
	require.NotNil(t, d)
	assert.Equal(t, []string{"C"}, d.Added)
	assert.Equal(t, []string{"A"}, d.Removed)
	assert.Equal(t, []string{"B"}, d.Unchanged)
	assert.Equal(t, 1, d.AddedCount)
	assert.Equal(t, 1, d.RemovedCount)
	assert.Equal(t, 1, d.UnchangedCount)
	assert.True(t, d.HasChanges)
}

func TestCompareNoBaseline(t *testing.T) {
	assert.Nil(t, Compare([]string{"A"}, nil))

	d := Compare([]string{"A"}, []string{})
	require.NotNil(t, d)
	assert.Equal(t, []string{"A"}, d.Added)
}

func TestCompareIdempotent(t *testing.T) {
	for _, a := range randomLists(50) {
		d := Compare(a, a)
		require.NotNil(t, d)
		assert.Empty(t, d.Added)
		assert.Empty(t, d.Removed)
		assert.ElementsMatch(t, dedupe(a), d.Unchanged)
		assert.False(t, d.HasChanges)
	}
}

func TestComparePartitions(t *testing.T) {
	lists := randomLists(40)
	for i := 0; i+1 < len(lists); i++ {
		a, b := lists[i], lists[i+1]
		d := Compare(a, b)

		added, removed, unchanged := toSet(d.Added), toSet(d.Removed), toSet(d.Unchanged)
		for id := range added {
			assert.False(t, removed[id] || unchanged[id], "added %s overlaps", id)
		}
		for id := range removed {
			assert.False(t, unchanged[id], "removed %s overlaps unchanged", id)
		}
		assert.ElementsMatch(t, dedupe(a), append(append([]string{}, d.Added...), d.Unchanged...))
		assert.ElementsMatch(t, dedupe(b), append(append([]string{}, d.Removed...), d.Unchanged...))
	}
}

func randomLists(n int) [][]string {
	r := rand.New(rand.NewSource(1))
	out := make([][]string, n)
	for i := range out {
		size := r.Intn(12)
		l := make([]string, size)
		for j := range l {
			l[j] = fmt.Sprint(r.Intn(15))
		}
		out[i] = l
	}
	return out
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// =============================================================================
// Size
// =============================================================================

func TestEstimateSizeAllUnknown(t *testing.T) {
	items := itemsOf(
		mod.Fallback(mod.Placeholder("111111111", "", nil), "x"),
		mod.Fallback(mod.Placeholder("222222222", "", nil), "x"),
		mod.Fallback(mod.Placeholder("333333333", "", nil), "x"),
	)
	est := EstimateSize(items)
	assert.Equal(t, 4.5, est.TotalGB)
	assert.Equal(t, 0.0, est.KnownGB)
	assert.Equal(t, 3, est.UnknownCount)
	assert.Equal(t, DefaultItemSizeGB, est.AverageGB)
}

func TestEstimateSizeAllKnown(t *testing.T) {
	items := itemsOf(
		item("1", "a", mod.Float(0.1)),
		item("2", "b", mod.Float(0.2)),
		item("3", "c", mod.Float(0.7)),
	)
	est := EstimateSize(items)
	assert.Equal(t, est.KnownGB, est.TotalGB, "no extrapolation when every size is known")
	assert.Equal(t, 3, est.KnownCount)
	assert.Zero(t, est.UnknownCount)
}

func TestEstimateSizeExtrapolates(t *testing.T) {
	items := itemsOf(
		item("1", "a", mod.Float(2)),
		item("2", "b", mod.Float(4)),
		item("3", "c", nil),
	)
	est := EstimateSize(items)
	assert.Equal(t, 3.0, est.AverageGB)
	assert.Equal(t, 9.0, est.TotalGB)
}

func TestEstimateSizeEmpty(t *testing.T) {
	est := EstimateSize(nil)
	assert.Zero(t, est.TotalGB)
	assert.Zero(t, est.KnownCount+est.UnknownCount)
}

// =============================================================================
// Categorize
// =============================================================================

func TestCategorize(t *testing.T) {
	items := itemsOf(
		item("1", "CUP Terrains - Core", nil),
		item("2", "NIArms All in One", nil),
		item("3", "RHS Tank Pack", nil),
		item("4", "Ravage Infantry Uniforms", nil),
		item("5", "ACE Compat - RHS", nil),
		item("6", "CBA_A3", nil),
		item("7", "Item 7", nil),
	)
	got := Categorize(items)

	assert.Len(t, got, len(Categories))
	assert.Equal(t, []string{"1"}, got[CategoryMaps])
	assert.Equal(t, []string{"3"}, got[CategoryVehicles])
	assert.Equal(t, []string{"4"}, got[CategoryUnits])
	assert.Equal(t, []string{"5"}, got[CategoryCompatibility])
	assert.Equal(t, []string{"2", "6", "7"}, got[CategoryOther])
	assert.Empty(t, got[CategoryWeapons])
}
