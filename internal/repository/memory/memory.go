// Package memory provides an in-memory Store used in demo mode and by
// tests. All operations are serialized on one mutex, which makes the
// counter upsert trivially atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tourpulse/backend/internal/domain"
)

// Store implements domain.Store over process memory.
type Store struct {
	mu          sync.Mutex
	telecom     []domain.TelecomAggregate
	tickets     []domain.Ticket
	places      map[domain.PlaceKey]*domain.TouristPlace
	events      []domain.EntryEvent
	hotels      map[int]domain.Hotel
	nextTelecom int64
	nextPlace   int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		places: make(map[domain.PlaceKey]*domain.TouristPlace),
		hotels: make(map[int]domain.Hotel),
	}
}

func (s *Store) QueryTelecomAggregates(ctx context.Context, f domain.TelecomFilter) ([]domain.TelecomAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.TelecomAggregate
	for _, a := range s.telecom {
		if !telecomMatches(a, f) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TimeWindow.Start.Before(out[j].TimeWindow.Start)
	})
	return out, nil
}

func telecomMatches(a domain.TelecomAggregate, f domain.TelecomFilter) bool {
	if f.State != "" && domain.NormalizeKeyPart(f.State) != domain.NormalizeKeyPart(a.Location.State) {
		return false
	}
	if f.City != "" && domain.NormalizeKeyPart(f.City) != domain.NormalizeKeyPart(a.Location.City) {
		return false
	}
	if f.Place != "" && domain.NormalizeKeyPart(f.Place) != a.PlaceKey().Name {
		return false
	}
	if !f.Range.Contains(a.TimeWindow.Start) {
		return false
	}
	if a.ConfidenceScore < f.MinConfidence {
		return false
	}
	return true
}

func (s *Store) InsertTelecomAggregate(ctx context.Context, agg domain.TelecomAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTelecom++
	agg.ID = s.nextTelecom
	if agg.IngestedAt.IsZero() {
		agg.IngestedAt = time.Now()
	}
	s.telecom = append(s.telecom, agg)
	return nil
}

func (s *Store) LatestTelecomWindow(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	for _, a := range s.telecom {
		if a.TimeWindow.Start.After(latest) {
			latest = a.TimeWindow.Start
		}
	}
	if latest.IsZero() {
		return time.Time{}, domain.ErrNotFound
	}
	return latest, nil
}

func (s *Store) QueryTickets(ctx context.Context, f domain.TicketFilter) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Ticket
	for _, t := range s.tickets {
		if !ticketMatches(t, f) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func ticketMatches(t domain.Ticket, f domain.TicketFilter) bool {
	if f.State != "" && domain.NormalizeKeyPart(f.State) != domain.NormalizeKeyPart(t.State) {
		return false
	}
	if f.City != "" && domain.NormalizeKeyPart(f.City) != domain.NormalizeKeyPart(t.City) {
		return false
	}
	if f.Place != "" && domain.NormalizeKeyPart(f.Place) != domain.NormalizeKeyPart(t.Place) {
		return false
	}
	return f.Range.Contains(t.CreatedAt)
}

// upsertLocked applies the counter update; callers hold s.mu.
func (s *Store) upsertLocked(key domain.PlaceKey, display domain.TouristPlace, visitors int, at time.Time) domain.TouristPlace {
	p, ok := s.places[key]
	if !ok {
		s.nextPlace++
		p = &domain.TouristPlace{
			ID:        s.nextPlace,
			State:     display.State,
			City:      display.City,
			Name:      display.Name,
			CreatedAt: at,
		}
		s.places[key] = p
	}
	p.ApplyVisit(at, visitors)
	return copyPlace(p)
}

func copyPlace(p *domain.TouristPlace) domain.TouristPlace {
	out := *p
	out.FootfallHistory = append([]domain.FootfallEntry(nil), p.FootfallHistory...)
	return out
}

func (s *Store) UpsertPlaceCounter(ctx context.Context, key domain.PlaceKey, display domain.TouristPlace, visitors int) (domain.TouristPlace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(key, display, visitors, time.Now()), nil
}

func (s *Store) GetPlace(ctx context.Context, key domain.PlaceKey) (domain.TouristPlace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.places[key]
	if !ok {
		return domain.TouristPlace{}, domain.ErrNotFound
	}
	return copyPlace(p), nil
}

func (s *Store) BookTicket(ctx context.Context, t domain.Ticket) (domain.Ticket, domain.TouristPlace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	display := domain.TouristPlace{State: t.State, City: t.City, Name: t.Place}
	place := s.upsertLocked(t.PlaceKey(), display, t.Visitors, t.CreatedAt)

	t.CrowdCountAtBooking = place.CrowdCount
	t.CrowdStatus = domain.SnapshotCrowdStatus(place.CrowdCount)
	s.tickets = append(s.tickets, t)
	return t, place, nil
}

func (s *Store) InsertEntryEvent(ctx context.Context, ev domain.EntryEvent) (domain.EntryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *Store) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels[h.SerialNo] = h
	return nil
}

func (s *Store) HotelOccupancy(ctx context.Context) (domain.HotelOccupancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var o domain.HotelOccupancy
	for _, h := range s.hotels {
		o.TotalRooms += h.TotalRooms
		o.TotalVacancy += h.Vacancy
	}
	return o, nil
}

func (s *Store) Health(ctx context.Context) error {
	return nil
}
