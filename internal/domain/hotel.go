package domain

import "math"

// Hotel is one lodging record contributing to the occupancy KPI.
type Hotel struct {
	ID           int64    `json:"id"`
	SerialNo     int      `json:"s_no"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Rating       float64  `json:"rating,omitempty"`
	Reviews      int      `json:"reviews,omitempty"`
	City         string   `json:"city"`
	TotalRooms   int      `json:"total_rooms"`
	Vacancy      int      `json:"vacancy"`
	Category     string   `json:"category"`
	NearbyPlaces []string `json:"nearby_places,omitempty"`
}

// OccupancyPercent derives the hotel's occupancy from rooms and vacancy.
func (h Hotel) OccupancyPercent() int {
	return occupancyPercent(h.TotalRooms, h.Vacancy)
}

// Validate rejects hotels whose vacancy exceeds their room count.
func (h Hotel) Validate() error {
	var reasons []string
	if NormalizeKeyPart(h.Name) == "" {
		reasons = append(reasons, "name is required")
	}
	if NormalizeKeyPart(h.City) == "" {
		reasons = append(reasons, "city is required")
	}
	if h.TotalRooms < 0 {
		reasons = append(reasons, "total_rooms must not be negative")
	}
	if h.Vacancy < 0 {
		reasons = append(reasons, "vacancy must not be negative")
	}
	if h.Vacancy > h.TotalRooms {
		reasons = append(reasons, "vacancy cannot exceed total rooms")
	}
	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// HotelOccupancy is the fleet-wide room aggregate backing the dashboard KPI.
type HotelOccupancy struct {
	TotalRooms   int `json:"total_rooms"`
	TotalVacancy int `json:"total_vacancy"`
}

// Percent is the fleet-wide occupancy rate, 0 when no rooms are known.
func (o HotelOccupancy) Percent() int {
	return occupancyPercent(o.TotalRooms, o.TotalVacancy)
}

func occupancyPercent(rooms, vacancy int) int {
	if rooms <= 0 {
		return 0
	}
	occupied := rooms - vacancy
	return int(math.Round(float64(occupied) / float64(rooms) * 100))
}
