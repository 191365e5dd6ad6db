package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tourpulse/backend/internal/domain"
)

// Store implements domain.Store over PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS telecom_aggregates (
			id BIGSERIAL PRIMARY KEY,
			window_start TIMESTAMPTZ NOT NULL,
			window_end TIMESTAMPTZ NOT NULL,
			window_minutes INT NOT NULL,
			state TEXT NOT NULL,
			district TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			tourist_place TEXT NOT NULL DEFAULT '',
			location_id TEXT NOT NULL DEFAULT '',
			total_devices INT NOT NULL CHECK (total_devices >= 0),
			domestic_devices INT NOT NULL CHECK (domestic_devices >= 0),
			international_devices INT NOT NULL CHECK (international_devices >= 0),
			international_breakdown JSONB NOT NULL DEFAULT '{}',
			network_distribution JSONB NOT NULL DEFAULT '{}',
			confidence_score DOUBLE PRECISION NOT NULL CHECK (confidence_score BETWEEN 0 AND 1),
			data_source TEXT NOT NULL DEFAULT 'TELCO',
			ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_telecom_place_window
			ON telecom_aggregates (lower(state), lower(city), lower(tourist_place), window_start DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_telecom_confidence
			ON telecom_aggregates (confidence_score, window_start DESC)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id UUID PRIMARY KEY,
			tourist_type TEXT NOT NULL,
			phone TEXT NOT NULL,
			country_code TEXT NOT NULL DEFAULT '',
			visitors INT NOT NULL CHECK (visitors >= 1),
			from_city TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			city TEXT NOT NULL,
			place TEXT NOT NULL,
			crowd_status TEXT NOT NULL,
			crowd_count_at_booking INT NOT NULL CHECK (crowd_count_at_booking >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_place_created
			ON tickets (lower(state), lower(city), lower(place), created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS tourist_places (
			id BIGSERIAL PRIMARY KEY,
			state TEXT NOT NULL,
			city TEXT NOT NULL,
			name TEXT NOT NULL,
			state_key TEXT NOT NULL,
			city_key TEXT NOT NULL,
			name_key TEXT NOT NULL,
			crowd_count INT NOT NULL DEFAULT 0 CHECK (crowd_count >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (state_key, city_key, name_key)
		)`,
		`CREATE TABLE IF NOT EXISTS footfall_history (
			id BIGSERIAL PRIMARY KEY,
			place_id BIGINT NOT NULL REFERENCES tourist_places(id),
			time TIMESTAMPTZ NOT NULL,
			visitors INT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_place ON footfall_history (place_id, id DESC)`,
		`CREATE TABLE IF NOT EXISTS entry_events (
			id UUID PRIMARY KEY,
			event_type TEXT NOT NULL DEFAULT 'ENTRY',
			source TEXT NOT NULL DEFAULT 'QR_CHECKIN',
			ticket_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			visitor_type TEXT NOT NULL,
			verification_level TEXT NOT NULL DEFAULT 'SELF_DECLARED',
			geo_opted_in BOOLEAN NOT NULL DEFAULT FALSE,
			geo_lat DOUBLE PRECISION,
			geo_lon DOUBLE PRECISION,
			geo_accuracy DOUBLE PRECISION,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_location ON entry_events (location_id, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS hotels (
			id BIGSERIAL PRIMARY KEY,
			s_no INT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			rating DOUBLE PRECISION,
			reviews INT,
			city TEXT NOT NULL,
			total_rooms INT NOT NULL CHECK (total_rooms >= 0),
			vacancy INT NOT NULL CHECK (vacancy >= 0),
			occupancy_percent INT NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT 'Hotel',
			nearby_places JSONB NOT NULL DEFAULT '[]'
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate failed: %w", err)
		}
	}
	return nil
}

// QueryTelecomAggregates retrieves aggregates matching the filter, ordered by
// window start ascending.
func (s *Store) QueryTelecomAggregates(ctx context.Context, f domain.TelecomFilter) ([]domain.TelecomAggregate, error) {
	query := `
		SELECT id, window_start, window_end, window_minutes,
			   state, district, city, tourist_place, location_id,
			   total_devices, domestic_devices, international_devices,
			   international_breakdown, network_distribution,
			   confidence_score, data_source, ingested_at
		FROM telecom_aggregates
	`
	where, args := telecomWhere(f)
	query += where + " ORDER BY window_start ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query telecom aggregates: %w", err)
	}
	defer rows.Close()

	var results []domain.TelecomAggregate
	for rows.Next() {
		var a domain.TelecomAggregate
		var intlJSON, netJSON []byte
		err := rows.Scan(
			&a.ID, &a.TimeWindow.Start, &a.TimeWindow.End, &a.TimeWindow.WindowMinutes,
			&a.Location.State, &a.Location.District, &a.Location.City, &a.Location.TouristPlace, &a.Location.LocationID,
			&a.Footfall.TotalDevices, &a.Footfall.DomesticDevices, &a.Footfall.InternationalDevices,
			&intlJSON, &netJSON,
			&a.ConfidenceScore, &a.DataSource, &a.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan telecom row: %w", err)
		}
		if err := json.Unmarshal(intlJSON, &a.InternationalBreakdown); err != nil {
			return nil, fmt.Errorf("postgres: bad international_breakdown: %w", err)
		}
		if err := json.Unmarshal(netJSON, &a.NetworkDistribution); err != nil {
			return nil, fmt.Errorf("postgres: bad network_distribution: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func telecomWhere(f domain.TelecomFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.State != "" {
		add("lower(state) = $%d", domain.NormalizeKeyPart(f.State))
	}
	if f.City != "" {
		add("lower(city) = $%d", domain.NormalizeKeyPart(f.City))
	}
	if f.Place != "" {
		// Aggregates without a tourist place fall back to their city name.
		add("lower(CASE WHEN tourist_place = '' THEN city ELSE tourist_place END) = $%d", domain.NormalizeKeyPart(f.Place))
	}
	if !f.Range.Start.IsZero() {
		add("window_start >= $%d", f.Range.Start)
	}
	if !f.Range.End.IsZero() {
		add("window_start <= $%d", f.Range.End)
	}
	if f.MinConfidence > 0 {
		add("confidence_score >= $%d", f.MinConfidence)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// InsertTelecomAggregate appends one aggregate row.
func (s *Store) InsertTelecomAggregate(ctx context.Context, a domain.TelecomAggregate) error {
	intlJSON, err := json.Marshal(orEmpty(a.InternationalBreakdown))
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal international_breakdown: %w", err)
	}
	netJSON, err := json.Marshal(orEmpty(a.NetworkDistribution))
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal network_distribution: %w", err)
	}

	query := `
		INSERT INTO telecom_aggregates (
			window_start, window_end, window_minutes,
			state, district, city, tourist_place, location_id,
			total_devices, domestic_devices, international_devices,
			international_breakdown, network_distribution,
			confidence_score, data_source
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	_, err = s.pool.Exec(ctx, query,
		a.TimeWindow.Start, a.TimeWindow.End, a.TimeWindow.WindowMinutes,
		a.Location.State, a.Location.District, a.Location.City, a.Location.TouristPlace, a.Location.LocationID,
		a.Footfall.TotalDevices, a.Footfall.DomesticDevices, a.Footfall.InternationalDevices,
		intlJSON, netJSON,
		a.ConfidenceScore, a.DataSource,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert telecom aggregate: %w", err)
	}
	return nil
}

func orEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

// LatestTelecomWindow returns the most recent window start.
func (s *Store) LatestTelecomWindow(ctx context.Context) (time.Time, error) {
	var latest *time.Time
	err := s.pool.QueryRow(ctx, `SELECT max(window_start) FROM telecom_aggregates`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: failed to query latest window: %w", err)
	}
	if latest == nil {
		return time.Time{}, domain.ErrNotFound
	}
	return *latest, nil
}

// QueryTickets retrieves tickets matching the filter, ordered by creation
// time ascending.
func (s *Store) QueryTickets(ctx context.Context, f domain.TicketFilter) ([]domain.Ticket, error) {
	query := `
		SELECT id, tourist_type, phone, country_code, visitors,
			   from_city, country, state, city, place,
			   crowd_status, crowd_count_at_booking, created_at
		FROM tickets
	`
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.State != "" {
		add("lower(state) = $%d", domain.NormalizeKeyPart(f.State))
	}
	if f.City != "" {
		add("lower(city) = $%d", domain.NormalizeKeyPart(f.City))
	}
	if f.Place != "" {
		add("lower(place) = $%d", domain.NormalizeKeyPart(f.Place))
	}
	if !f.Range.Start.IsZero() {
		add("created_at >= $%d", f.Range.Start)
	}
	if !f.Range.End.IsZero() {
		add("created_at <= $%d", f.Range.End)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query tickets: %w", err)
	}
	defer rows.Close()

	var results []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		err := rows.Scan(
			&t.ID, &t.TouristType, &t.Phone, &t.CountryCode, &t.Visitors,
			&t.FromCity, &t.Country, &t.State, &t.City, &t.Place,
			&t.CrowdStatus, &t.CrowdCountAtBooking, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan ticket row: %w", err)
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// upsertPlaceTx runs the counter upsert inside tx and returns the updated
// place row. The ON CONFLICT target is the unique normalized key, so
// concurrent bookings for one place serialize on the row and different
// places proceed in parallel.
func upsertPlaceTx(ctx context.Context, tx pgx.Tx, key domain.PlaceKey, display domain.TouristPlace, visitors int, at time.Time) (domain.TouristPlace, error) {
	var p domain.TouristPlace
	err := tx.QueryRow(ctx, `
		INSERT INTO tourist_places (state, city, name, state_key, city_key, name_key, crowd_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, GREATEST(0, $7), $8, $8)
		ON CONFLICT (state_key, city_key, name_key)
		DO UPDATE SET crowd_count = GREATEST(0, tourist_places.crowd_count + $7), updated_at = $8
		RETURNING id, state, city, name, crowd_count, created_at, updated_at
	`, display.State, display.City, display.Name, key.State, key.City, key.Name, visitors, at).Scan(
		&p.ID, &p.State, &p.City, &p.Name, &p.CrowdCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to upsert place counter: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO footfall_history (place_id, time, visitors) VALUES ($1, $2, $3)`,
		p.ID, at, visitors,
	); err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to append footfall history: %w", err)
	}

	// FIFO cap by insertion order, not age.
	if _, err := tx.Exec(ctx, `
		DELETE FROM footfall_history
		WHERE place_id = $1 AND id NOT IN (
			SELECT id FROM footfall_history WHERE place_id = $1 ORDER BY id DESC LIMIT $2
		)
	`, p.ID, domain.MaxFootfallHistory); err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to cap footfall history: %w", err)
	}

	return p, nil
}

// UpsertPlaceCounter applies the visitor delta in its own transaction.
func (s *Store) UpsertPlaceCounter(ctx context.Context, key domain.PlaceKey, display domain.TouristPlace, visitors int) (domain.TouristPlace, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := upsertPlaceTx(ctx, tx, key, display, visitors, time.Now())
	if err != nil {
		return domain.TouristPlace{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to commit counter upsert: %w", err)
	}
	return p, nil
}

// GetPlace returns the place with its capped history, oldest first.
func (s *Store) GetPlace(ctx context.Context, key domain.PlaceKey) (domain.TouristPlace, error) {
	var p domain.TouristPlace
	err := s.pool.QueryRow(ctx, `
		SELECT id, state, city, name, crowd_count, created_at, updated_at
		FROM tourist_places
		WHERE state_key = $1 AND city_key = $2 AND name_key = $3
	`, key.State, key.City, key.Name).Scan(
		&p.ID, &p.State, &p.City, &p.Name, &p.CrowdCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TouristPlace{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to query place: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT time, visitors FROM (
			SELECT id, time, visitors FROM footfall_history
			WHERE place_id = $1 ORDER BY id DESC LIMIT $2
		) recent ORDER BY id ASC
	`, p.ID, domain.MaxFootfallHistory)
	if err != nil {
		return domain.TouristPlace{}, fmt.Errorf("postgres: failed to query footfall history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.FootfallEntry
		if err := rows.Scan(&e.Time, &e.Visitors); err != nil {
			return domain.TouristPlace{}, fmt.Errorf("postgres: failed to scan history row: %w", err)
		}
		p.FootfallHistory = append(p.FootfallHistory, e)
	}
	return p, rows.Err()
}

// BookTicket inserts the ticket and updates the place counter in one
// transaction, so a failed counter update rolls the ticket back.
func (s *Store) BookTicket(ctx context.Context, t domain.Ticket) (domain.Ticket, domain.TouristPlace, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Ticket{}, domain.TouristPlace{}, fmt.Errorf("postgres: failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	display := domain.TouristPlace{State: t.State, City: t.City, Name: t.Place}
	place, err := upsertPlaceTx(ctx, tx, t.PlaceKey(), display, t.Visitors, t.CreatedAt)
	if err != nil {
		return domain.Ticket{}, domain.TouristPlace{}, err
	}

	t.CrowdCountAtBooking = place.CrowdCount
	t.CrowdStatus = domain.SnapshotCrowdStatus(place.CrowdCount)

	_, err = tx.Exec(ctx, `
		INSERT INTO tickets (
			id, tourist_type, phone, country_code, visitors,
			from_city, country, state, city, place,
			crowd_status, crowd_count_at_booking, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, t.ID, t.TouristType, t.Phone, t.CountryCode, t.Visitors,
		t.FromCity, t.Country, t.State, t.City, t.Place,
		t.CrowdStatus, t.CrowdCountAtBooking, t.CreatedAt,
	)
	if err != nil {
		return domain.Ticket{}, domain.TouristPlace{}, fmt.Errorf("postgres: failed to insert ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Ticket{}, domain.TouristPlace{}, fmt.Errorf("postgres: failed to commit booking: %w", err)
	}
	return t, place, nil
}

// InsertEntryEvent appends one check-in event.
func (s *Store) InsertEntryEvent(ctx context.Context, ev domain.EntryEvent) (domain.EntryEvent, error) {
	var lat, lon, acc *float64
	if ev.GeoLocation != nil {
		lat, lon, acc = &ev.GeoLocation.Latitude, &ev.GeoLocation.Longitude, &ev.GeoLocation.Accuracy
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO entry_events (
			id, event_type, source, ticket_id, location_id,
			visitor_type, verification_level, geo_opted_in,
			geo_lat, geo_lon, geo_accuracy, timestamp
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, ev.ID, ev.EventType, ev.Source, ev.TicketID, ev.LocationID,
		ev.VisitorType, ev.VerificationLevel, ev.GeoOptedIn,
		lat, lon, acc, ev.Timestamp,
	)
	if err != nil {
		return domain.EntryEvent{}, fmt.Errorf("postgres: failed to insert entry event: %w", err)
	}
	return ev, nil
}

// UpsertHotel creates or replaces a hotel keyed by serial number.
func (s *Store) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	nearbyJSON, err := json.Marshal(h.NearbyPlaces)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal nearby_places: %w", err)
	}
	if h.NearbyPlaces == nil {
		nearbyJSON = []byte("[]")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO hotels (s_no, name, address, rating, reviews, city, total_rooms, vacancy, occupancy_percent, category, nearby_places)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (s_no) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, rating = EXCLUDED.rating,
			reviews = EXCLUDED.reviews, city = EXCLUDED.city,
			total_rooms = EXCLUDED.total_rooms, vacancy = EXCLUDED.vacancy,
			occupancy_percent = EXCLUDED.occupancy_percent,
			category = EXCLUDED.category, nearby_places = EXCLUDED.nearby_places
	`, h.SerialNo, h.Name, h.Address, h.Rating, h.Reviews, h.City,
		h.TotalRooms, h.Vacancy, h.OccupancyPercent(), h.Category, nearbyJSON,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert hotel: %w", err)
	}
	return nil
}

// HotelOccupancy returns the fleet-wide room aggregate.
func (s *Store) HotelOccupancy(ctx context.Context) (domain.HotelOccupancy, error) {
	var o domain.HotelOccupancy
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_rooms), 0), COALESCE(SUM(vacancy), 0) FROM hotels
	`).Scan(&o.TotalRooms, &o.TotalVacancy)
	if err != nil {
		return domain.HotelOccupancy{}, fmt.Errorf("postgres: failed to query hotel occupancy: %w", err)
	}
	return o, nil
}

// Health checks database connectivity.
func (s *Store) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
