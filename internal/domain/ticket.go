package domain

import "time"

// TouristType distinguishes domestic from international bookings.
type TouristType string

const (
	TouristDomestic      TouristType = "DOMESTIC"
	TouristInternational TouristType = "INTERNATIONAL"
)

// CrowdStatus is the coarse crowd label snapshotted onto a ticket at booking
// time. It uses the booking-side scale, which is distinct from the read-side
// classifier bands.
type CrowdStatus string

const (
	CrowdStatusLow      CrowdStatus = "Low"
	CrowdStatusHigh     CrowdStatus = "High"
	CrowdStatusCritical CrowdStatus = "Critical"
)

// SnapshotCrowdStatus labels a crowd count for a ticket snapshot.
func SnapshotCrowdStatus(count int) CrowdStatus {
	switch {
	case count >= 20000:
		return CrowdStatusCritical
	case count >= 8000:
		return CrowdStatusHigh
	default:
		return CrowdStatusLow
	}
}

// Ticket is one booking transaction. Immutable once created. Exactly one of
// FromCity/Country is populated, determined by TouristType.
type Ticket struct {
	ID                  string      `json:"id"`
	TouristType         TouristType `json:"tourist_type"`
	Phone               string      `json:"phone"`
	CountryCode         string      `json:"country_code,omitempty"`
	Visitors            int         `json:"visitors"`
	FromCity            string      `json:"from_city,omitempty"`
	Country             string      `json:"country,omitempty"`
	State               string      `json:"state"`
	City                string      `json:"city"`
	Place               string      `json:"place"`
	CrowdStatus         CrowdStatus `json:"crowd_status"`
	CrowdCountAtBooking int         `json:"crowd_count_at_booking"`
	CreatedAt           time.Time   `json:"created_at"`
}

// PlaceKey returns the normalized merge key of the booked place.
func (t Ticket) PlaceKey() PlaceKey {
	return NewPlaceKey(t.State, t.City, t.Place)
}

// ValidateTicket checks required fields and applies the tourist-type field
// rules: domestic bookings clear Country, international bookings clear
// FromCity. It returns the adjusted ticket, or a *ValidationError listing
// every reason. Pure; performs no store access.
func ValidateTicket(t Ticket) (Ticket, error) {
	var reasons []string

	switch t.TouristType {
	case TouristDomestic:
		t.Country = ""
	case TouristInternational:
		t.FromCity = ""
	default:
		reasons = append(reasons, "tourist_type must be DOMESTIC or INTERNATIONAL")
	}

	if t.Visitors < 1 {
		reasons = append(reasons, "visitors must be at least 1")
	}
	if NormalizeKeyPart(t.Phone) == "" {
		reasons = append(reasons, "phone is required")
	}
	if NormalizeKeyPart(t.State) == "" {
		reasons = append(reasons, "state is required")
	}
	if NormalizeKeyPart(t.City) == "" {
		reasons = append(reasons, "city is required")
	}
	if NormalizeKeyPart(t.Place) == "" {
		reasons = append(reasons, "place is required")
	}

	if len(reasons) > 0 {
		return Ticket{}, &ValidationError{Reasons: reasons}
	}
	return t, nil
}
