package footfall

import (
	"testing"

	"github.com/tourpulse/backend/internal/domain"
)

func aggWithConfidence(place string, score float64) domain.TelecomAggregate {
	return domain.TelecomAggregate{
		Location:        domain.Location{State: "Rajasthan", City: "Jaipur", TouristPlace: place},
		ConfidenceScore: score,
	}
}

func TestFilterByConfidence(t *testing.T) {
	in := []domain.TelecomAggregate{
		aggWithConfidence("a", 0.9),
		aggWithConfidence("b", 0.3),
		aggWithConfidence("c", 0.5),
		aggWithConfidence("d", 0.49),
		aggWithConfidence("e", 0.7),
	}

	out := FilterByConfidence(in, 0.5)
	if len(out) != 3 {
		t.Fatalf("kept %d aggregates, want 3", len(out))
	}

	// Threshold is inclusive and order is preserved.
	wantOrder := []string{"a", "c", "e"}
	for i, want := range wantOrder {
		if out[i].Location.TouristPlace != want {
			t.Errorf("out[%d] = %q, want %q", i, out[i].Location.TouristPlace, want)
		}
	}
}

func TestFilterByConfidenceKeepsAllAtZeroThreshold(t *testing.T) {
	in := []domain.TelecomAggregate{
		aggWithConfidence("a", 0.01),
		aggWithConfidence("b", 0.99),
	}
	if out := FilterByConfidence(in, 0); len(out) != 2 {
		t.Fatalf("kept %d aggregates, want 2", len(out))
	}
}

func TestFilterByConfidenceEmpty(t *testing.T) {
	if out := FilterByConfidence(nil, 0.5); len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}
