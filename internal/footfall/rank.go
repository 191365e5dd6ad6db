package footfall

import (
	"sort"

	"github.com/tourpulse/backend/internal/domain"
)

// Recommendation cutoffs. LowCrowdMax overlaps the classifier bands on
// purpose: a place in the 12000-15000 range can appear in both lists.
const (
	LowCrowdMax  = 15000
	HighCrowdMin = ModerateMin
	DefaultLimit = 6
)

// RecommendLow returns up to limit estimates with CrowdCount <= LowCrowdMax,
// ascending. Ties keep arrival order.
func RecommendLow(ests []domain.MergedPlaceEstimate, limit int) []domain.MergedPlaceEstimate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]domain.MergedPlaceEstimate, 0, len(ests))
	for _, e := range ests {
		if e.CrowdCount <= LowCrowdMax {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CrowdCount < out[j].CrowdCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RecommendHigh returns up to limit estimates with CrowdCount >=
// HighCrowdMin, descending, each labeled with its crowd level. Ties keep
// arrival order.
func RecommendHigh(ests []domain.MergedPlaceEstimate, limit int) []domain.MergedPlaceEstimate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]domain.MergedPlaceEstimate, 0, len(ests))
	for _, e := range ests {
		level, ok := Classify(e.CrowdCount)
		if !ok {
			continue
		}
		e.CrowdLevel = level
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CrowdCount > out[j].CrowdCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
