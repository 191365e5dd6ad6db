package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tourpulse/backend/internal/domain"
)

func TestUpsertPlaceCounterConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := domain.NewPlaceKey("Rajasthan", "Jaipur", "Amber Fort")
	display := domain.TouristPlace{State: "Rajasthan", City: "Jaipur", Name: "Amber Fort"}

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.UpsertPlaceCounter(ctx, key, display, 1); err != nil {
				t.Errorf("upsert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := s.GetPlace(ctx, key)
	if err != nil {
		t.Fatalf("get place: %v", err)
	}
	if p.CrowdCount != n {
		t.Fatalf("crowd count = %d after %d concurrent increments, want %d", p.CrowdCount, n, n)
	}
	if len(p.FootfallHistory) != n {
		t.Fatalf("history length = %d, want %d", len(p.FootfallHistory), n)
	}
}

func TestUpsertPlaceCounterHistoryCap(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := domain.NewPlaceKey("Rajasthan", "Jaipur", "Hawa Mahal")
	display := domain.TouristPlace{State: "Rajasthan", City: "Jaipur", Name: "Hawa Mahal"}

	n := domain.MaxFootfallHistory + 1
	for i := 0; i < n; i++ {
		if _, err := s.UpsertPlaceCounter(ctx, key, display, 1); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	p, err := s.GetPlace(ctx, key)
	if err != nil {
		t.Fatalf("get place: %v", err)
	}
	if len(p.FootfallHistory) != domain.MaxFootfallHistory {
		t.Fatalf("history length = %d, want %d", len(p.FootfallHistory), domain.MaxFootfallHistory)
	}
	if p.CrowdCount != n {
		t.Fatalf("crowd count = %d, want %d (eviction must not touch the gauge)", p.CrowdCount, n)
	}
}

func TestUpsertPlaceCounterKeepsDisplayCasing(t *testing.T) {
	s := New()
	ctx := context.Background()
	display := domain.TouristPlace{State: "Rajasthan", City: "Jaipur", Name: "Amber Fort"}

	first, err := s.UpsertPlaceCounter(ctx, domain.NewPlaceKey("RAJASTHAN", "JAIPUR", "AMBER FORT"), display, 10)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := s.UpsertPlaceCounter(ctx, domain.NewPlaceKey("rajasthan", "jaipur", "amber fort"),
		domain.TouristPlace{State: "rajasthan", City: "jaipur", Name: "amber fort"}, 5)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("case variants created distinct places: %d vs %d", first.ID, second.ID)
	}
	if second.Name != "Amber Fort" {
		t.Errorf("display name = %q, want first writer's casing", second.Name)
	}
	if second.CrowdCount != 15 {
		t.Errorf("crowd count = %d, want 15", second.CrowdCount)
	}
}

func TestBookTicketSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Pre-load the counter so the booking crosses the 8000 threshold.
	key := domain.NewPlaceKey("Rajasthan", "Jaipur", "City Palace")
	display := domain.TouristPlace{State: "Rajasthan", City: "Jaipur", Name: "City Palace"}
	if _, err := s.UpsertPlaceCounter(ctx, key, display, 7998); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stored, place, err := s.BookTicket(ctx, domain.Ticket{
		ID:          "t-1",
		TouristType: domain.TouristDomestic,
		Visitors:    2,
		State:       "Rajasthan",
		City:        "Jaipur",
		Place:       "City Palace",
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if place.CrowdCount != 8000 {
		t.Fatalf("place crowd = %d, want 8000", place.CrowdCount)
	}
	// Snapshot is taken after the booking's own increment.
	if stored.CrowdCountAtBooking != 8000 {
		t.Errorf("snapshot count = %d, want 8000", stored.CrowdCountAtBooking)
	}
	if stored.CrowdStatus != domain.CrowdStatusHigh {
		t.Errorf("snapshot status = %q, want %q", stored.CrowdStatus, domain.CrowdStatusHigh)
	}

	got, err := s.QueryTickets(ctx, domain.TicketFilter{Place: "city palace"})
	if err != nil {
		t.Fatalf("query tickets: %v", err)
	}
	if len(got) != 1 || got[0].CrowdCountAtBooking != 8000 {
		t.Fatalf("stored ticket missing snapshot: %+v", got)
	}
}

func TestLatestTelecomWindowEmpty(t *testing.T) {
	s := New()
	if _, err := s.LatestTelecomWindow(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetPlaceNotFound(t *testing.T) {
	s := New()
	_, err := s.GetPlace(context.Background(), domain.NewPlaceKey("x", "y", "z"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestQueryTelecomAggregatesFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

	insert := func(place string, start time.Time, conf float64) {
		err := s.InsertTelecomAggregate(ctx, domain.TelecomAggregate{
			TimeWindow: domain.TimeWindow{Start: start, End: start.Add(time.Hour), WindowMinutes: 60},
			Location: domain.Location{
				State: "Rajasthan", District: "Jaipur", City: "Jaipur", TouristPlace: place,
			},
			Footfall:        domain.FootfallCounts{TotalDevices: 100},
			ConfidenceScore: conf,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	insert("Amber Fort", base, 0.9)
	insert("Amber Fort", base.Add(time.Hour), 0.3)
	insert("Hawa Mahal", base, 0.9)
	insert("Amber Fort", base.Add(48*time.Hour), 0.9)

	got, err := s.QueryTelecomAggregates(ctx, domain.TelecomFilter{
		State:         "rajasthan",
		Place:         "AMBER FORT",
		Range:         domain.TimeRange{Start: base, End: base.Add(2 * time.Hour)},
		MinConfidence: 0.5,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d aggregates, want 1 (confidence, place and range filters): %+v", len(got), got)
	}
	if !got[0].TimeWindow.Start.Equal(base) {
		t.Errorf("wrong aggregate survived: %+v", got[0])
	}

	latest, err := s.LatestTelecomWindow(ctx)
	if err != nil {
		t.Fatalf("latest window: %v", err)
	}
	if !latest.Equal(base.Add(48 * time.Hour)) {
		t.Errorf("latest window = %v, want %v", latest, base.Add(48*time.Hour))
	}
}

func TestHotelOccupancyAggregates(t *testing.T) {
	s := New()
	ctx := context.Background()

	hotels := []domain.Hotel{
		{SerialNo: 1, Name: "A", City: "Jaipur", TotalRooms: 100, Vacancy: 40},
		{SerialNo: 2, Name: "B", City: "Udaipur", TotalRooms: 50, Vacancy: 10},
	}
	for _, h := range hotels {
		if err := s.UpsertHotel(ctx, h); err != nil {
			t.Fatalf("upsert hotel: %v", err)
		}
	}
	// Re-upserting the same serial replaces, not duplicates.
	if err := s.UpsertHotel(ctx, domain.Hotel{SerialNo: 2, Name: "B", City: "Udaipur", TotalRooms: 50, Vacancy: 25}); err != nil {
		t.Fatalf("upsert hotel: %v", err)
	}

	occ, err := s.HotelOccupancy(ctx)
	if err != nil {
		t.Fatalf("occupancy: %v", err)
	}
	if occ.TotalRooms != 150 || occ.TotalVacancy != 65 {
		t.Fatalf("occupancy = %+v, want 150 rooms / 65 vacant", occ)
	}
}
