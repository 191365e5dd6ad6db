// Package simulate seeds the store with plausible telecom aggregates and
// hotels for demo mode, when no real pre-aggregated feed is available.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tourpulse/backend/internal/domain"
	"github.com/tourpulse/backend/pkg/utils"
)

type demoPlace struct {
	State    string
	District string
	City     string
	Place    string
	Base     int
}

var demoPlaces = []demoPlace{
	{"Rajasthan", "Jaipur", "Jaipur", "Amber Fort", 16000},
	{"Rajasthan", "Jaipur", "Jaipur", "Hawa Mahal", 12000},
	{"Rajasthan", "Jaipur", "Jaipur", "City Palace", 9000},
	{"Rajasthan", "Jodhpur", "Jodhpur", "Mehrangarh Fort", 21000},
	{"Rajasthan", "Udaipur", "Udaipur", "Lake Pichola", 13000},
	{"Rajasthan", "Ajmer", "Pushkar", "Pushkar Lake", 6000},
	{"Rajasthan", "Jaisalmer", "Jaisalmer", "Jaisalmer Fort", 18000},
	{"Rajasthan", "Bharatpur", "Bharatpur", "Keoladeo National Park", 4000},
}

var demoHotels = []domain.Hotel{
	{SerialNo: 1, Name: "Rambagh Heritage", Address: "Bhawani Singh Rd", City: "Jaipur", Rating: 4.7, TotalRooms: 120, Vacancy: 18, Category: "Heritage"},
	{SerialNo: 2, Name: "Lakeview Retreat", Address: "Ambrai Ghat", City: "Udaipur", Rating: 4.4, TotalRooms: 80, Vacancy: 26, Category: "Resort"},
	{SerialNo: 3, Name: "Blue City Stay", Address: "Clock Tower Rd", City: "Jodhpur", Rating: 4.1, TotalRooms: 60, Vacancy: 12, Category: "Hotel"},
	{SerialNo: 4, Name: "Desert Dunes Camp", Address: "Sam Rd", City: "Jaisalmer", Rating: 4.3, TotalRooms: 45, Vacancy: 30, Category: "Camp"},
}

// Generator produces simulated hourly telecom windows.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a generator; a zero seed uses the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// hourLoad returns the fraction of a place's base footfall present at the
// given hour. Mornings and late afternoons peak, nights bottom out.
func hourLoad(hour int) float64 {
	switch {
	case hour >= 10 && hour <= 12:
		return 1.0
	case hour >= 16 && hour <= 18:
		return 0.9
	case hour >= 7 && hour <= 9:
		return 0.6
	case hour >= 13 && hour <= 15:
		return 0.7
	case hour >= 19 && hour <= 21:
		return 0.4
	default:
		return 0.1
	}
}

// WindowAt generates one hourly aggregate for a place.
func (g *Generator) WindowAt(p demoPlace, start time.Time) domain.TelecomAggregate {
	load := hourLoad(start.Hour()) * (0.85 + g.rng.Float64()*0.3)
	total := int(float64(p.Base) * load)
	international := int(float64(total) * (0.1 + g.rng.Float64()*0.15))
	domestic := total - international

	// Roughly one in ten windows comes in below the default confidence
	// threshold so the filter path stays exercised.
	confidence := 0.55 + g.rng.Float64()*0.4
	if g.rng.Intn(10) == 0 {
		confidence = 0.2 + g.rng.Float64()*0.25
	}

	return domain.TelecomAggregate{
		TimeWindow: domain.TimeWindow{
			Start:         start,
			End:           start.Add(time.Hour),
			WindowMinutes: 60,
		},
		Location: domain.Location{
			State:        p.State,
			District:     p.District,
			City:         p.City,
			TouristPlace: p.Place,
		},
		Footfall: domain.FootfallCounts{
			TotalDevices:         total,
			DomesticDevices:      domestic,
			InternationalDevices: international,
		},
		InternationalBreakdown: map[string]int{
			"UK":  international / 3,
			"USA": international / 4,
			"DE":  international / 6,
		},
		NetworkDistribution: map[string]int{
			"jio":    int(float64(total) * 0.4),
			"airtel": int(float64(total) * 0.35),
			"vi":     int(float64(total) * 0.25),
		},
		ConfidenceScore: utils.RoundTo(utils.Clamp(confidence, 0, 1), 2),
		DataSource:      domain.SourceSimulated,
	}
}

// Seed inserts hourly windows covering the last `hours` hours for every demo
// place, plus the demo hotels.
func Seed(ctx context.Context, store domain.Store, hours int) error {
	g := NewGenerator(0)
	anchor := time.Now().Truncate(time.Hour)

	for _, p := range demoPlaces {
		for i := hours; i > 0; i-- {
			agg := g.WindowAt(p, anchor.Add(-time.Duration(i)*time.Hour))
			if err := store.InsertTelecomAggregate(ctx, agg); err != nil {
				return fmt.Errorf("simulate: seed telecom: %w", err)
			}
		}
	}
	for _, h := range demoHotels {
		if err := store.UpsertHotel(ctx, h); err != nil {
			return fmt.Errorf("simulate: seed hotels: %w", err)
		}
	}
	return nil
}
