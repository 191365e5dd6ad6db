package domain

import "time"

// DataSource identifies where a telecom aggregate came from.
type DataSource string

const (
	SourceTelco      DataSource = "TELCO"
	SourceSimulated  DataSource = "SIMULATED"
	SourceThirdParty DataSource = "THIRD_PARTY"
)

// TimeWindow is the interval one telecom aggregate covers.
type TimeWindow struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	WindowMinutes int       `json:"window_minutes"`
}

// Location is the place identity carried by a telecom aggregate. TouristPlace
// may be empty for city-level aggregates.
type Location struct {
	State        string `json:"state"`
	District     string `json:"district,omitempty"`
	City         string `json:"city,omitempty"`
	TouristPlace string `json:"tourist_place,omitempty"`
	LocationID   string `json:"location_id,omitempty"`
}

// FootfallCounts holds device counts for one aggregate. Domestic and
// international need not sum to total.
type FootfallCounts struct {
	TotalDevices         int `json:"total_devices"`
	DomesticDevices      int `json:"domestic_devices"`
	InternationalDevices int `json:"international_devices"`
}

// TelecomAggregate is a pre-computed, confidence-scored device-count estimate
// for one place over one time window. Append-only: never mutated after
// ingestion.
type TelecomAggregate struct {
	ID                     int64          `json:"id"`
	TimeWindow             TimeWindow     `json:"time_window"`
	Location               Location       `json:"location"`
	Footfall               FootfallCounts `json:"footfall"`
	InternationalBreakdown map[string]int `json:"international_breakdown,omitempty"`
	NetworkDistribution    map[string]int `json:"network_distribution,omitempty"`
	ConfidenceScore        float64        `json:"confidence_score"`
	DataSource             DataSource     `json:"data_source"`
	IngestedAt             time.Time      `json:"ingested_at"`
}

// PlaceKey returns the merge key for the aggregate. Aggregates without a
// specific tourist place fall back to their city name, so both sides of a
// comparison must apply the same fallback.
func (a TelecomAggregate) PlaceKey() PlaceKey {
	name := a.Location.TouristPlace
	if NormalizeKeyPart(name) == "" {
		name = a.Location.City
	}
	return NewPlaceKey(a.Location.State, a.Location.City, name)
}
