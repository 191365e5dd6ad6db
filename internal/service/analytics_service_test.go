package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tourpulse/backend/internal/domain"
	"github.com/tourpulse/backend/internal/footfall"
	"github.com/tourpulse/backend/internal/repository/memory"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func insertAggregate(t *testing.T, s *memory.Store, city, place string, devices int, conf float64, start time.Time) {
	t.Helper()
	err := s.InsertTelecomAggregate(context.Background(), domain.TelecomAggregate{
		TimeWindow: domain.TimeWindow{Start: start, End: start.Add(time.Hour), WindowMinutes: 60},
		Location: domain.Location{
			State: "Rajasthan", District: city, City: city, TouristPlace: place,
		},
		Footfall:        domain.FootfallCounts{TotalDevices: devices, DomesticDevices: devices},
		ConfidenceScore: conf,
	})
	if err != nil {
		t.Fatalf("insert aggregate: %v", err)
	}
}

func bookTicket(t *testing.T, s *memory.Store, city, place string, visitors int, at time.Time) {
	t.Helper()
	_, _, err := s.BookTicket(context.Background(), domain.Ticket{
		TouristType: domain.TouristDomestic,
		Visitors:    visitors,
		State:       "Rajasthan",
		City:        city,
		Place:       place,
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("book ticket: %v", err)
	}
}

func TestFootfallSummaryExcludesLowConfidence(t *testing.T) {
	store := memory.New()
	now := time.Now()
	// The only signal for Ranthambore sits below the threshold; the place
	// must vanish rather than contribute a discounted count.
	insertAggregate(t, store, "Sawai Madhopur", "Ranthambore", 9000, 0.3, now)
	insertAggregate(t, store, "Jaipur", "Amber Fort", 1000, 0.9, now)

	svc := NewAnalyticsService(store, 0.5, testLog())
	cities, err := svc.FootfallSummary(context.Background(), "Rajasthan", domain.TimeRange{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if _, ok := cities["Sawai Madhopur"]; ok {
		t.Fatal("low-confidence-only place leaked into the summary")
	}
	ests, ok := cities["Jaipur"]
	if !ok || len(ests) != 1 {
		t.Fatalf("Jaipur estimates = %+v, want exactly one", ests)
	}
	if ests[0].CrowdCount != footfall.BlendCount(1000, 0) {
		t.Errorf("crowd = %d, want %d", ests[0].CrowdCount, footfall.BlendCount(1000, 0))
	}
}

func TestFootfallSummaryGroupsByCity(t *testing.T) {
	store := memory.New()
	now := time.Now()
	insertAggregate(t, store, "Jaipur", "Amber Fort", 1000, 0.9, now)
	insertAggregate(t, store, "Jaipur", "Hawa Mahal", 500, 0.9, now)
	insertAggregate(t, store, "Udaipur", "City Palace", 800, 0.9, now)
	bookTicket(t, store, "Jaipur", "Amber Fort", 100, now)

	svc := NewAnalyticsService(store, 0, testLog())
	cities, err := svc.FootfallSummary(context.Background(), "Rajasthan", domain.TimeRange{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if len(cities) != 2 {
		t.Fatalf("got %d cities, want 2: %v", len(cities), cities)
	}
	if len(cities["Jaipur"]) != 2 || len(cities["Udaipur"]) != 1 {
		t.Fatalf("city grouping wrong: %+v", cities)
	}
	for _, e := range cities["Jaipur"] {
		if e.Place == "Amber Fort" && e.CrowdCount != footfall.BlendCount(1000, 100) {
			t.Errorf("Amber Fort crowd = %d, want %d", e.CrowdCount, footfall.BlendCount(1000, 100))
		}
	}
}

func TestFootfallSummaryRequiresState(t *testing.T) {
	svc := NewAnalyticsService(memory.New(), 0, testLog())
	_, err := svc.FootfallSummary(context.Background(), "  ", domain.TimeRange{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestFootfallSeriesBuckets(t *testing.T) {
	store := memory.New()
	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	insertAggregate(t, store, "Jaipur", "Amber Fort", 600, 0.9, base.Add(5*time.Minute))
	insertAggregate(t, store, "Jaipur", "Amber Fort", 1000, 0.9, base.Add(65*time.Minute))
	bookTicket(t, store, "Jaipur", "Amber Fort", 50, base.Add(10*time.Minute))

	svc := NewAnalyticsService(store, 0, testLog())
	series, err := svc.FootfallSeries(context.Background(), "Rajasthan", "Jaipur", "Amber Fort", domain.TimeRange{}, footfall.IntervalHour)
	if err != nil {
		t.Fatalf("series: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("got %d points, want 2: %+v", len(series), series)
	}
	if !series[0].Time.Equal(base) {
		t.Errorf("first bucket at %v, want %v", series[0].Time, base)
	}
	if series[0].Visitors != footfall.BlendCount(600, 50) {
		t.Errorf("first bucket = %d, want %d", series[0].Visitors, footfall.BlendCount(600, 50))
	}
	if series[1].Visitors != footfall.BlendCount(1000, 0) {
		t.Errorf("second bucket = %d, want %d", series[1].Visitors, footfall.BlendCount(1000, 0))
	}
}

func TestFootfallSeriesRequiresPlaceIdentity(t *testing.T) {
	svc := NewAnalyticsService(memory.New(), 0, testLog())
	_, err := svc.FootfallSeries(context.Background(), "Rajasthan", "", "", domain.TimeRange{}, footfall.IntervalHour)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *ValidationError", err)
	}
	if len(verr.Reasons) != 2 {
		t.Fatalf("got reasons %v, want city and place", verr.Reasons)
	}
}

func TestDashboardStatsAnchorsToLatestWindow(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	latest := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)
	// One aggregate inside the 24h lookback, one far outside it.
	insertAggregate(t, store, "Jaipur", "Amber Fort", 1000, 0.9, latest)
	insertAggregate(t, store, "Jaipur", "Amber Fort", 9999, 0.9, latest.Add(-30*time.Hour))
	bookTicket(t, store, "Jaipur", "Amber Fort", 100, latest.Add(-time.Hour))

	if err := store.UpsertHotel(ctx, domain.Hotel{SerialNo: 1, Name: "A", City: "Jaipur", TotalRooms: 100, Vacancy: 40}); err != nil {
		t.Fatalf("upsert hotel: %v", err)
	}

	svc := NewAnalyticsService(store, 0, testLog())
	stats, err := svc.DashboardStats(ctx, domain.TimeRange{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if stats.TotalFootfall != 1000+100 {
		t.Errorf("TotalFootfall = %d, want 1100 (stale window must be excluded)", stats.TotalFootfall)
	}
	if stats.HotelOccupancy != 60 {
		t.Errorf("HotelOccupancy = %d, want 60", stats.HotelOccupancy)
	}
	if !stats.WindowEnd.Equal(latest) {
		t.Errorf("WindowEnd = %v, want %v", stats.WindowEnd, latest)
	}
	if !stats.WindowStart.Equal(latest.Add(-24 * time.Hour)) {
		t.Errorf("WindowStart = %v, want 24h before the newest window", stats.WindowStart)
	}
}

func TestDashboardStatsEmptyStore(t *testing.T) {
	svc := NewAnalyticsService(memory.New(), 0, testLog())
	stats, err := svc.DashboardStats(context.Background(), domain.TimeRange{})
	if err != nil {
		t.Fatalf("dashboard on empty store: %v", err)
	}
	if stats.TotalFootfall != 0 || stats.HotelOccupancy != 0 {
		t.Fatalf("empty store stats = %+v, want zeros", stats)
	}
}

func TestRecommendLowCrowdSearchFilter(t *testing.T) {
	store := memory.New()
	now := time.Now()
	insertAggregate(t, store, "Jaipur", "Amber Fort", 5000, 0.9, now)
	insertAggregate(t, store, "Jaipur", "Nahargarh Fort", 9000, 0.9, now)
	insertAggregate(t, store, "Jaipur", "Jantar Mantar", 4000, 0.9, now)

	svc := NewAnalyticsService(store, 0, testLog())
	out, err := svc.RecommendLowCrowd(context.Background(), "Rajasthan", "", "fort", 10)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d places, want 2 matching %q: %+v", len(out), "fort", out)
	}
	if out[0].Place != "Amber Fort" || out[1].Place != "Nahargarh Fort" {
		t.Fatalf("wrong order or contents: %+v", out)
	}
}

func TestRecommendHighCrowdDistrictFilter(t *testing.T) {
	store := memory.New()
	now := time.Now()
	insertAggregate(t, store, "Jaipur", "Amber Fort", 30000, 0.9, now)
	insertAggregate(t, store, "Udaipur", "City Palace", 25000, 0.9, now)

	svc := NewAnalyticsService(store, 0, testLog())
	out, err := svc.RecommendHighCrowd(context.Background(), "Rajasthan", "Udaipur", "", 10)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(out) != 1 || out[0].Place != "City Palace" {
		t.Fatalf("district filter wrong: %+v", out)
	}
	if out[0].CrowdLevel != domain.CrowdCritical {
		t.Errorf("crowd level = %q, want Critical", out[0].CrowdLevel)
	}
}

func TestVisitorAnalyticsSumsAndSorts(t *testing.T) {
	store := memory.New()
	now := time.Now()
	insertAggregate(t, store, "Jaipur", "Amber Fort", 1000, 0.8, now)
	insertAggregate(t, store, "Jaipur", "Amber Fort", 2000, 0.6, now.Add(time.Hour))
	insertAggregate(t, store, "Jaipur", "Hawa Mahal", 5000, 0.9, now)

	svc := NewAnalyticsService(store, 0, testLog())
	out, err := svc.VisitorAnalytics(context.Background(), domain.TelecomFilter{State: "Rajasthan"})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d rollups, want 2", len(out))
	}
	if out[0].Place != "Hawa Mahal" {
		t.Fatalf("not sorted by total descending: %+v", out)
	}
	amber := out[1]
	if amber.TotalVisitors != 3000 {
		t.Errorf("rollup sums devices, got %d want 3000", amber.TotalVisitors)
	}
	if amber.AvgConfidence != 0.7 {
		t.Errorf("avg confidence = %v, want 0.7", amber.AvgConfidence)
	}
}
