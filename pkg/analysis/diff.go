package analysis

import "sort"

// Diff partitions two identifier lists. The three sets are disjoint;
// Added ∪ Unchanged is the current list and Removed ∪ Unchanged the previous.
type Diff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`

	AddedCount     int  `json:"added_count"`
	RemovedCount   int  `json:"removed_count"`
	UnchangedCount int  `json:"unchanged_count"`
	HasChanges     bool `json:"has_changes"`
}

// Compare diffs current against previous. A nil previous means there is no
// baseline and yields a nil Diff; an empty non-nil previous is a real
// baseline. Output sets are sorted.
func Compare(current, previous []string) *Diff {
	if previous == nil {
		return nil
	}
	cur := toSet(current)
	prev := toSet(previous)

	d := &Diff{Added: []string{}, Removed: []string{}, Unchanged: []string{}}
	for id := range cur {
		if prev[id] {
			d.Unchanged = append(d.Unchanged, id)
		} else {
			d.Added = append(d.Added, id)
		}
	}
	for id := range prev {
		if !cur[id] {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Unchanged)

	d.AddedCount = len(d.Added)
	d.RemovedCount = len(d.Removed)
	d.UnchangedCount = len(d.Unchanged)
	d.HasChanges = d.AddedCount > 0 || d.RemovedCount > 0
	return d
}

func toSet(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}
