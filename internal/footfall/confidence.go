package footfall

import "github.com/tourpulse/backend/internal/domain"

// DefaultMinConfidence is the threshold below which telecom aggregates are
// dropped from merged estimates. Ticket data is exact and never filtered.
const DefaultMinConfidence = 0.5

// FilterByConfidence returns the aggregates with ConfidenceScore >= min,
// preserving input order. Discarded records are dropped silently; a
// low-confidence estimate should not distort merged counts, but its absence
// is not an error.
func FilterByConfidence(aggs []domain.TelecomAggregate, min float64) []domain.TelecomAggregate {
	kept := make([]domain.TelecomAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.ConfidenceScore >= min {
			kept = append(kept, a)
		}
	}
	return kept
}
