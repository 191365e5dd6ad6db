package domain

import (
	"strings"
	"time"
)

// MaxFootfallHistory bounds the per-place history. Entries beyond this are
// evicted oldest-first by insertion order, regardless of age.
const MaxFootfallHistory = 500

// PlaceKey identifies a tourist place across data sources. All components
// are stored normalized; two keys refer to the same physical location iff
// they are equal.
type PlaceKey struct {
	State string
	City  string
	Name  string
}

// NormalizeKeyPart lowercases and trims a place identity component. Every
// place comparison in the merge layer goes through this, so telecom and
// ticket records with differing casing still align.
func NormalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewPlaceKey builds a normalized key from raw identity fields.
func NewPlaceKey(state, city, name string) PlaceKey {
	return PlaceKey{
		State: NormalizeKeyPart(state),
		City:  NormalizeKeyPart(city),
		Name:  NormalizeKeyPart(name),
	}
}

// FootfallEntry is one history sample on a TouristPlace.
type FootfallEntry struct {
	Time     time.Time `json:"time"`
	Visitors int       `json:"visitors"`
}

// TouristPlace is the durable per-place counter entity. It is created on the
// first ticket booked for its (state, city, name) triple and mutated
// additively on every subsequent one.
type TouristPlace struct {
	ID              int64           `json:"id"`
	State           string          `json:"state"`
	City            string          `json:"city"`
	Name            string          `json:"name"`
	CrowdCount      int             `json:"crowd_count"`
	FootfallHistory []FootfallEntry `json:"footfall_history,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Key returns the normalized identity of the place.
func (p TouristPlace) Key() PlaceKey {
	return NewPlaceKey(p.State, p.City, p.Name)
}

// ApplyVisit increments the crowd gauge (floored at zero) and appends a
// history entry, evicting the oldest entry when the cap is exceeded.
func (p *TouristPlace) ApplyVisit(at time.Time, visitors int) {
	p.CrowdCount += visitors
	if p.CrowdCount < 0 {
		p.CrowdCount = 0
	}
	p.FootfallHistory = append(p.FootfallHistory, FootfallEntry{Time: at, Visitors: visitors})
	if len(p.FootfallHistory) > MaxFootfallHistory {
		p.FootfallHistory = p.FootfallHistory[len(p.FootfallHistory)-MaxFootfallHistory:]
	}
	p.UpdatedAt = at
}
