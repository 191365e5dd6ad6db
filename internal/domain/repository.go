package domain

import (
	"context"
	"time"
)

// TimeRange bounds a query. A zero Start or End leaves that side unbounded.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether no bound is set at all.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the range (inclusive bounds).
func (r TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// TelecomFilter selects telecom aggregates. String fields are compared on
// their normalized forms; empty fields match everything. MinConfidence is a
// pushdown hint; the merge layer applies its own confidence filter.
type TelecomFilter struct {
	State         string
	City          string
	Place         string
	Range         TimeRange
	MinConfidence float64
}

// TicketFilter selects ticket events by place identity and creation time.
type TicketFilter struct {
	State string
	City  string
	Place string
	Range TimeRange
}

// MergedPlaceEstimate is the derived, never-persisted reconciliation of the
// two footfall signals for one place. Computed on read.
type MergedPlaceEstimate struct {
	Place           string     `json:"place"`
	City            string     `json:"city"`
	District        string     `json:"district,omitempty"`
	State           string     `json:"state"`
	TelecomFootfall int        `json:"telecom_footfall"`
	TicketFootfall  int        `json:"ticket_footfall"`
	CrowdCount      int        `json:"crowd_count"`
	CrowdLevel      CrowdLevel `json:"crowd_level,omitempty"`
}

// CrowdLevel is the read-side categorical label attached to high-crowd
// recommendations. Values are produced by the footfall classifier.
type CrowdLevel string

const (
	CrowdModerate CrowdLevel = "Moderate"
	CrowdHigh     CrowdLevel = "High"
	CrowdCritical CrowdLevel = "Critical"
)

// DashboardStats are the headline KPIs. Footfall totals combine the two
// sources additively, unlike the per-place weighted blend.
type DashboardStats struct {
	TotalFootfall         int       `json:"total_footfall"`
	DomesticVisitors      int       `json:"domestic_visitors"`
	InternationalVisitors int       `json:"international_visitors"`
	HotelOccupancy        int       `json:"hotel_occupancy"`
	WindowStart           time.Time `json:"window_start,omitempty"`
	WindowEnd             time.Time `json:"window_end,omitempty"`
}

// Store is the persistence boundary. The domain defines the interface; the
// repository packages implement it. It is injected at startup with an
// explicit lifecycle rather than accessed as ambient state.
type Store interface {
	// QueryTelecomAggregates returns aggregates matching the filter, ordered
	// by window start ascending.
	QueryTelecomAggregates(ctx context.Context, f TelecomFilter) ([]TelecomAggregate, error)

	// InsertTelecomAggregate appends one aggregate. Aggregates are immutable
	// once ingested.
	InsertTelecomAggregate(ctx context.Context, agg TelecomAggregate) error

	// LatestTelecomWindow returns the most recent window start, or
	// ErrNotFound when no aggregates exist.
	LatestTelecomWindow(ctx context.Context) (time.Time, error)

	// QueryTickets returns tickets matching the filter, ordered by creation
	// time ascending.
	QueryTickets(ctx context.Context, f TicketFilter) ([]Ticket, error)

	// UpsertPlaceCounter atomically find-or-creates the place for key,
	// applies the visitor delta (gauge floored at zero) and appends a capped
	// history entry. Concurrent calls for the same key must not lose
	// increments or create duplicate places. The display argument supplies
	// the original-cased identity used when the place is first created.
	UpsertPlaceCounter(ctx context.Context, key PlaceKey, display TouristPlace, visitors int) (TouristPlace, error)

	// GetPlace returns the place for key with its history, or ErrNotFound.
	GetPlace(ctx context.Context, key PlaceKey) (TouristPlace, error)

	// BookTicket inserts the ticket and applies the place counter upsert in
	// a single atomic unit. The stored ticket carries the crowd snapshot
	// taken after its own increment.
	BookTicket(ctx context.Context, t Ticket) (Ticket, TouristPlace, error)

	// InsertEntryEvent appends one check-in event.
	InsertEntryEvent(ctx context.Context, ev EntryEvent) (EntryEvent, error)

	// UpsertHotel creates or replaces a hotel by serial number.
	UpsertHotel(ctx context.Context, h Hotel) error

	// HotelOccupancy returns the fleet-wide room aggregate.
	HotelOccupancy(ctx context.Context) (HotelOccupancy, error)

	// Health checks store connectivity.
	Health(ctx context.Context) error
}
