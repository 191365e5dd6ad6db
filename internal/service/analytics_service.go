package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tourpulse/backend/internal/domain"
	"github.com/tourpulse/backend/internal/footfall"
)

// dashboardLookback is the window used by the dashboard when the caller
// gives no explicit range; it is anchored to the newest telecom window.
const dashboardLookback = 24 * time.Hour

// AnalyticsService computes the read-side footfall views. It takes no locks:
// telecom and ticket data may reflect different moments, which is accepted.
type AnalyticsService struct {
	store         domain.Store
	minConfidence float64
	log           *logrus.Entry
}

// NewAnalyticsService creates the analytics service. minConfidence <= 0
// falls back to the default threshold.
func NewAnalyticsService(store domain.Store, minConfidence float64, log *logrus.Entry) *AnalyticsService {
	if minConfidence <= 0 {
		minConfidence = footfall.DefaultMinConfidence
	}
	return &AnalyticsService{
		store:         store,
		minConfidence: minConfidence,
		log:           log.WithField("service", "analytics"),
	}
}

// fetchSignals runs the two source queries concurrently and joins the
// results once both complete. Read-path store failures degrade to empty
// slices with a logged warning instead of failing the whole view.
func (s *AnalyticsService) fetchSignals(ctx context.Context, tf domain.TelecomFilter, kf domain.TicketFilter) ([]domain.TelecomAggregate, []domain.Ticket) {
	var (
		aggs    []domain.TelecomAggregate
		tickets []domain.Ticket
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a, err := s.store.QueryTelecomAggregates(ctx, tf)
		if err != nil {
			s.log.WithError(err).Warn("telecom query failed, continuing with empty signal")
			return
		}
		aggs = a
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		t, err := s.store.QueryTickets(ctx, kf)
		if err != nil {
			s.log.WithError(err).Warn("ticket query failed, continuing with empty signal")
			return
		}
		tickets = t
	}()

	wg.Wait()
	return footfall.FilterByConfidence(aggs, s.minConfidence), tickets
}

// stateEstimates merges both signals into per-place estimates for a state.
func (s *AnalyticsService) stateEstimates(ctx context.Context, state string, rng domain.TimeRange) []domain.MergedPlaceEstimate {
	aggs, tickets := s.fetchSignals(ctx,
		domain.TelecomFilter{State: state, Range: rng, MinConfidence: s.minConfidence},
		domain.TicketFilter{State: state, Range: rng},
	)
	return footfall.MergeEstimates(
		footfall.GroupTelecomByPlace(aggs),
		footfall.SumTicketsByPlace(tickets),
	)
}

// FootfallSummary returns the merged estimates for a state grouped by city.
func (s *AnalyticsService) FootfallSummary(ctx context.Context, state string, rng domain.TimeRange) (map[string][]domain.MergedPlaceEstimate, error) {
	if domain.NormalizeKeyPart(state) == "" {
		return nil, &domain.ValidationError{Reasons: []string{"state is required"}}
	}

	cities := make(map[string][]domain.MergedPlaceEstimate)
	for _, est := range s.stateEstimates(ctx, state, rng) {
		cities[est.City] = append(cities[est.City], est)
	}
	return cities, nil
}

// FootfallSeries returns the blended crowd curve for one place, bucketed to
// the requested interval and ordered ascending.
func (s *AnalyticsService) FootfallSeries(ctx context.Context, state, city, place string, rng domain.TimeRange, iv footfall.Interval) ([]footfall.SeriesPoint, error) {
	var reasons []string
	if domain.NormalizeKeyPart(state) == "" {
		reasons = append(reasons, "state is required")
	}
	if domain.NormalizeKeyPart(city) == "" {
		reasons = append(reasons, "city is required")
	}
	if domain.NormalizeKeyPart(place) == "" {
		reasons = append(reasons, "place is required")
	}
	if len(reasons) > 0 {
		return nil, &domain.ValidationError{Reasons: reasons}
	}

	aggs, tickets := s.fetchSignals(ctx,
		domain.TelecomFilter{State: state, City: city, Place: place, Range: rng, MinConfidence: s.minConfidence},
		domain.TicketFilter{State: state, City: city, Place: place, Range: rng},
	)
	return footfall.MergeSeries(
		footfall.GroupTelecomByBucket(aggs, iv),
		footfall.SumTicketsByBucket(tickets, iv),
	), nil
}

// RecommendLowCrowd returns up to limit places a visitor should prefer.
func (s *AnalyticsService) RecommendLowCrowd(ctx context.Context, state, district, search string, limit int) ([]domain.MergedPlaceEstimate, error) {
	if domain.NormalizeKeyPart(state) == "" {
		return nil, &domain.ValidationError{Reasons: []string{"state is required"}}
	}
	ests := filterEstimates(s.stateEstimates(ctx, state, domain.TimeRange{}), district, search)
	return footfall.RecommendLow(ests, limit), nil
}

// RecommendHighCrowd returns up to limit crowded places, labeled by level.
func (s *AnalyticsService) RecommendHighCrowd(ctx context.Context, state, district, search string, limit int) ([]domain.MergedPlaceEstimate, error) {
	if domain.NormalizeKeyPart(state) == "" {
		return nil, &domain.ValidationError{Reasons: []string{"state is required"}}
	}
	ests := filterEstimates(s.stateEstimates(ctx, state, domain.TimeRange{}), district, search)
	return footfall.RecommendHigh(ests, limit), nil
}

// filterEstimates applies the optional district and search narrowing.
// Ticket-only estimates carry no district, so a district filter excludes
// them.
func filterEstimates(ests []domain.MergedPlaceEstimate, district, search string) []domain.MergedPlaceEstimate {
	district = domain.NormalizeKeyPart(district)
	search = domain.NormalizeKeyPart(search)
	if district == "" && search == "" {
		return ests
	}

	out := make([]domain.MergedPlaceEstimate, 0, len(ests))
	for _, e := range ests {
		if district != "" && domain.NormalizeKeyPart(e.District) != district {
			continue
		}
		if search != "" && !strings.Contains(domain.NormalizeKeyPart(e.Place), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DashboardStats computes the headline KPIs. With a zero range it anchors a
// 24-hour window to the newest telecom aggregate; an empty store yields
// zeros, not an error.
func (s *AnalyticsService) DashboardStats(ctx context.Context, rng domain.TimeRange) (domain.DashboardStats, error) {
	if rng.IsZero() {
		latest, err := s.store.LatestTelecomWindow(ctx)
		switch {
		case err == nil:
			rng = domain.TimeRange{Start: latest.Add(-dashboardLookback), End: latest}
		case errors.Is(err, domain.ErrNotFound):
			// No telecom data at all; leave the range open so ticket data
			// still counts.
		default:
			s.log.WithError(err).Warn("latest telecom window lookup failed")
		}
	}

	aggs, tickets := s.fetchSignals(ctx,
		domain.TelecomFilter{Range: rng, MinConfidence: s.minConfidence},
		domain.TicketFilter{Range: rng},
	)
	stats := footfall.DashboardTotals(aggs, tickets)
	stats.WindowStart = rng.Start
	stats.WindowEnd = rng.End

	occ, err := s.store.HotelOccupancy(ctx)
	if err != nil {
		s.log.WithError(err).Warn("hotel occupancy query failed, reporting zero")
	} else {
		stats.HotelOccupancy = occ.Percent()
	}
	return stats, nil
}

// TelecomAnalytics is the per-place telecom rollup: summed device counts and
// average confidence, sorted by total descending in the merge layer's
// grouping order.
type TelecomAnalytics struct {
	State                 string  `json:"state"`
	City                  string  `json:"city"`
	Place                 string  `json:"place"`
	TotalVisitors         int     `json:"total_visitors"`
	DomesticVisitors      int     `json:"domestic_visitors"`
	InternationalVisitors int     `json:"international_visitors"`
	AvgConfidence         float64 `json:"avg_confidence"`
}

// VisitorAnalytics returns telecom-only rollups for ad-hoc drilldowns. The
// filter fields are all optional.
func (s *AnalyticsService) VisitorAnalytics(ctx context.Context, f domain.TelecomFilter) ([]TelecomAnalytics, error) {
	aggs, err := s.store.QueryTelecomAggregates(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("visitor analytics: %w", err)
	}

	groups := footfall.GroupTelecomByPlace(aggs)
	out := make([]TelecomAnalytics, 0, len(groups))
	for _, g := range groups {
		out = append(out, TelecomAnalytics{
			State:                 g.State,
			City:                  g.City,
			Place:                 g.Place,
			TotalVisitors:         g.DeviceSum,
			DomesticVisitors:      g.DomesticSum,
			InternationalVisitors: g.InternationalSum,
			AvgConfidence:         g.AverageConfidence(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalVisitors > out[j].TotalVisitors })
	return out, nil
}
