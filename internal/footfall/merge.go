package footfall

import (
	"math"
	"sort"
	"time"

	"github.com/tourpulse/backend/internal/domain"

	"github.com/tourpulse/backend/pkg/utils"
)

// Per-place blend weights. Telecom aggregates cover the broad population,
// ticket counts are exact but partial, so telecom dominates. A place missing
// one source still goes through the formula with that term at zero.
const (
	TelecomWeight = 0.7
	TicketWeight  = 0.3
)

// MaxTelecomGroups caps how many distinct place groups a single merge will
// accumulate. A merge over an unbounded input set is the only
// unbounded-cost operation in the read path; past the cap, records for new
// keys are skipped while existing groups keep accumulating.
const MaxTelecomGroups = 50

// TelecomGroup accumulates telecom aggregates sharing a merge key. Repeated
// snapshots inside a group are redundant samples of the same quantity, so
// consumers read the average, never the sum.
type TelecomGroup struct {
	Key    domain.PlaceKey
	Bucket time.Time

	// Display identity from the first record seen for the key.
	State    string
	District string
	City     string
	Place    string

	Samples          int
	DeviceSum        int
	DomesticSum      int
	InternationalSum int
	ConfidenceSum    float64
}

// AverageDevices is the group's device-count estimate.
func (g *TelecomGroup) AverageDevices() float64 {
	if g.Samples == 0 {
		return 0
	}
	return float64(g.DeviceSum) / float64(g.Samples)
}

// AverageConfidence is the mean confidence score, rounded to two places.
func (g *TelecomGroup) AverageConfidence() float64 {
	if g.Samples == 0 {
		return 0
	}
	return utils.RoundTo(g.ConfidenceSum/float64(g.Samples), 2)
}

func (g *TelecomGroup) add(a domain.TelecomAggregate) {
	g.Samples++
	g.DeviceSum += a.Footfall.TotalDevices
	g.DomesticSum += a.Footfall.DomesticDevices
	g.InternationalSum += a.Footfall.InternationalDevices
	g.ConfidenceSum += a.ConfidenceScore
}

func newTelecomGroup(a domain.TelecomAggregate, key domain.PlaceKey, bucket time.Time) *TelecomGroup {
	place := a.Location.TouristPlace
	if place == "" {
		place = a.Location.City
	}
	return &TelecomGroup{
		Key:      key,
		Bucket:   bucket,
		State:    a.Location.State,
		District: a.Location.District,
		City:     a.Location.City,
		Place:    place,
	}
}

// GroupTelecomByPlace buckets aggregates by merge key only, honoring the
// group cap in input order.
func GroupTelecomByPlace(aggs []domain.TelecomAggregate) map[domain.PlaceKey]*TelecomGroup {
	groups := make(map[domain.PlaceKey]*TelecomGroup)
	for _, a := range aggs {
		key := a.PlaceKey()
		g, ok := groups[key]
		if !ok {
			if len(groups) >= MaxTelecomGroups {
				continue
			}
			g = newTelecomGroup(a, key, time.Time{})
			groups[key] = g
		}
		g.add(a)
	}
	return groups
}

// BucketKey identifies a (place, time-bucket) group.
type BucketKey struct {
	Place  domain.PlaceKey
	Bucket time.Time
}

// GroupTelecomByBucket buckets aggregates by merge key and window start
// truncated to the interval.
func GroupTelecomByBucket(aggs []domain.TelecomAggregate, iv Interval) map[BucketKey]*TelecomGroup {
	groups := make(map[BucketKey]*TelecomGroup)
	for _, a := range aggs {
		key := BucketKey{Place: a.PlaceKey(), Bucket: Truncate(a.TimeWindow.Start, iv)}
		g, ok := groups[key]
		if !ok {
			if len(groups) >= MaxTelecomGroups {
				continue
			}
			g = newTelecomGroup(a, key.Place, key.Bucket)
			groups[key] = g
		}
		g.add(a)
	}
	return groups
}

// TicketGroup is the summed ticket signal for one place. Each ticket is a
// distinct set of people, so ticket counts add.
type TicketGroup struct {
	Key      domain.PlaceKey
	State    string
	City     string
	Place    string
	Visitors int
}

// SumTicketsByPlace folds tickets into per-place visitor sums.
func SumTicketsByPlace(tickets []domain.Ticket) map[domain.PlaceKey]*TicketGroup {
	groups := make(map[domain.PlaceKey]*TicketGroup)
	for _, t := range tickets {
		key := t.PlaceKey()
		g, ok := groups[key]
		if !ok {
			g = &TicketGroup{Key: key, State: t.State, City: t.City, Place: t.Place}
			groups[key] = g
		}
		g.Visitors += t.Visitors
	}
	return groups
}

// SumTicketsByBucket folds tickets into per-(place, bucket) visitor sums.
func SumTicketsByBucket(tickets []domain.Ticket, iv Interval) map[BucketKey]int {
	sums := make(map[BucketKey]int)
	for _, t := range tickets {
		key := BucketKey{Place: t.PlaceKey(), Bucket: Truncate(t.CreatedAt, iv)}
		sums[key] += t.Visitors
	}
	return sums
}

// BlendCount applies the per-place weighting formula. A missing source
// contributes zero to its term rather than being excluded.
func BlendCount(telecomAverage float64, ticketSum int) int {
	return int(math.Round(telecomAverage*TelecomWeight + float64(ticketSum)*TicketWeight))
}

// MergeEstimates joins the two grouped signals into one estimate per place.
// The join is full outer: a place with only ticket data appears with
// TelecomFootfall zero, and vice versa. Output is ordered by key for
// determinism.
func MergeEstimates(tel map[domain.PlaceKey]*TelecomGroup, tick map[domain.PlaceKey]*TicketGroup) []domain.MergedPlaceEstimate {
	keys := make([]domain.PlaceKey, 0, len(tel)+len(tick))
	seen := make(map[domain.PlaceKey]bool, len(tel)+len(tick))
	for k := range tel {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range tick {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.State != b.State {
			return a.State < b.State
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.Name < b.Name
	})

	ests := make([]domain.MergedPlaceEstimate, 0, len(keys))
	for _, k := range keys {
		var est domain.MergedPlaceEstimate
		var telecomAvg float64
		var ticketSum int

		if g, ok := tel[k]; ok {
			telecomAvg = g.AverageDevices()
			est.State = g.State
			est.District = g.District
			est.City = g.City
			est.Place = g.Place
		}
		if g, ok := tick[k]; ok {
			ticketSum = g.Visitors
			if est.Place == "" {
				est.State = g.State
				est.City = g.City
				est.Place = g.Place
			}
		}

		est.TelecomFootfall = int(math.Round(telecomAvg))
		est.TicketFootfall = ticketSum
		est.CrowdCount = BlendCount(telecomAvg, ticketSum)
		ests = append(ests, est)
	}
	return ests
}

// SeriesPoint is one bucket of a crowd curve.
type SeriesPoint struct {
	Time     time.Time `json:"time"`
	Visitors int       `json:"visitors"`
}

// MergeSeries blends the bucketed signals for a single place into an ordered
// crowd curve. Both maps must be keyed on the same place and interval.
func MergeSeries(tel map[BucketKey]*TelecomGroup, tick map[BucketKey]int) []SeriesPoint {
	buckets := make(map[time.Time]SeriesPoint)
	for k, g := range tel {
		p := buckets[k.Bucket]
		p.Time = k.Bucket
		p.Visitors = BlendCount(g.AverageDevices(), tick[k])
		buckets[k.Bucket] = p
	}
	for k, sum := range tick {
		if _, ok := buckets[k.Bucket]; ok {
			continue
		}
		buckets[k.Bucket] = SeriesPoint{Time: k.Bucket, Visitors: BlendCount(0, sum)}
	}

	series := make([]SeriesPoint, 0, len(buckets))
	for _, p := range buckets {
		series = append(series, p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	return series
}

// DashboardTotals combines the two sources additively for fleet-wide KPIs.
// At aggregate scale the sources contribute complementary totals rather than
// competing estimates of the same population, so no weighting is applied.
// This asymmetry with the per-place blend is intentional.
func DashboardTotals(aggs []domain.TelecomAggregate, tickets []domain.Ticket) domain.DashboardStats {
	var stats domain.DashboardStats
	for _, a := range aggs {
		stats.TotalFootfall += a.Footfall.TotalDevices
		stats.DomesticVisitors += a.Footfall.DomesticDevices
		stats.InternationalVisitors += a.Footfall.InternationalDevices
	}
	for _, t := range tickets {
		stats.TotalFootfall += t.Visitors
		switch t.TouristType {
		case domain.TouristDomestic:
			stats.DomesticVisitors += t.Visitors
		case domain.TouristInternational:
			stats.InternationalVisitors += t.Visitors
		}
	}
	return stats
}
