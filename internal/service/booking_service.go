package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tourpulse/backend/internal/domain"
)

// BookingService owns the write path: ticket bookings and QR check-ins.
// Unlike the read path, store failures here are propagated, never swallowed.
type BookingService struct {
	store domain.Store
	log   *logrus.Entry
}

// NewBookingService creates the booking service.
func NewBookingService(store domain.Store, log *logrus.Entry) *BookingService {
	return &BookingService{
		store: store,
		log:   log.WithField("service", "booking"),
	}
}

// BookTicket validates the booking, then inserts the ticket and applies the
// place counter update as one atomic unit. The returned ticket carries the
// crowd snapshot taken after its own increment.
func (s *BookingService) BookTicket(ctx context.Context, t domain.Ticket) (domain.Ticket, domain.TouristPlace, error) {
	t, err := domain.ValidateTicket(t)
	if err != nil {
		return domain.Ticket{}, domain.TouristPlace{}, err
	}

	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()

	ticket, place, err := s.store.BookTicket(ctx, t)
	if err != nil {
		return domain.Ticket{}, domain.TouristPlace{}, fmt.Errorf("book ticket: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"place":       place.Name,
		"city":        place.City,
		"visitors":    ticket.Visitors,
		"crowd_count": place.CrowdCount,
	}).Info("ticket booked")
	return ticket, place, nil
}

// CheckIn records a QR check-in event.
func (s *BookingService) CheckIn(ctx context.Context, ev domain.EntryEvent) (domain.EntryEvent, error) {
	ev, err := domain.ValidateEntryEvent(ev)
	if err != nil {
		return domain.EntryEvent{}, err
	}

	ev.ID = uuid.NewString()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	stored, err := s.store.InsertEntryEvent(ctx, ev)
	if err != nil {
		return domain.EntryEvent{}, fmt.Errorf("check in: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"event_id":    stored.ID,
		"ticket_id":   stored.TicketID,
		"location_id": stored.LocationID,
	}).Info("check-in recorded")
	return stored, nil
}

// PlaceStatus returns the live counter state for one place.
func (s *BookingService) PlaceStatus(ctx context.Context, state, city, place string) (domain.TouristPlace, error) {
	return s.store.GetPlace(ctx, domain.NewPlaceKey(state, city, place))
}

// RegisterHotel validates and upserts a hotel record.
func (s *BookingService) RegisterHotel(ctx context.Context, h domain.Hotel) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if h.Category == "" {
		h.Category = "Hotel"
	}
	if err := s.store.UpsertHotel(ctx, h); err != nil {
		return fmt.Errorf("register hotel: %w", err)
	}
	return nil
}
