package analysis

import "github.com/jfahler/loadmasterbot/pkg/mod"

// DefaultItemSizeGB is the per-item estimate used when no item in a list has
// a known size.
const DefaultItemSizeGB = 1.5

// SizeEstimate aggregates item sizes.
type SizeEstimate struct {
	TotalGB      float64 `json:"total_gb"`
	KnownGB      float64 `json:"known_gb"`
	KnownCount   int     `json:"known_count"`
	UnknownCount int     `json:"unknown_count"`
	AverageGB    float64 `json:"average_gb"`
}

// EstimateSize sums known sizes and extrapolates unknown ones at the average
// of the known sizes in the same list, or DefaultItemSizeGB when none is
// known.
func EstimateSize(items map[string]mod.Item) SizeEstimate {
	var est SizeEstimate
	for _, it := range items {
		if it.SizeGB != nil {
			est.KnownGB += *it.SizeGB
			est.KnownCount++
		} else {
			est.UnknownCount++
		}
	}

	est.AverageGB = DefaultItemSizeGB
	if est.KnownCount > 0 {
		est.AverageGB = est.KnownGB / float64(est.KnownCount)
	}
	est.TotalGB = est.KnownGB
	if est.UnknownCount > 0 {
		est.TotalGB += float64(est.UnknownCount) * est.AverageGB
	}
	return est
}
