package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/tourpulse/backend/internal/domain"
	"github.com/tourpulse/backend/internal/export"
	"github.com/tourpulse/backend/internal/footfall"
	"github.com/tourpulse/backend/internal/service"
)

// defaultState mirrors the original deployment's single-state rollout.
const defaultState = "Rajasthan"

// Handler contains all HTTP handlers
type Handler struct {
	analytics *service.AnalyticsService
	booking   *service.BookingService
	store     domain.Store
	log       *logrus.Entry
}

// NewHandler creates a new handler
func NewHandler(analytics *service.AnalyticsService, booking *service.BookingService, store domain.Store, log *logrus.Entry) *Handler {
	return &Handler{
		analytics: analytics,
		booking:   booking,
		store:     store,
		log:       log.WithField("component", "http"),
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.store.Health(c.Context()); err != nil {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "tourpulse-backend",
		"version": "1.0.0",
	})
}

// parseTimeRange reads startDate/endDate (RFC 3339 or YYYY-MM-DD) or an
// "hours" lookback from the query string. All of them are optional.
func parseTimeRange(c *fiber.Ctx) (domain.TimeRange, error) {
	var rng domain.TimeRange

	if hours := c.QueryInt("hours", 0); hours > 0 {
		rng.End = time.Now()
		rng.Start = rng.End.Add(-time.Duration(hours) * time.Hour)
		return rng, nil
	}

	parse := func(v string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", v)
	}

	if v := c.Query("startDate"); v != "" {
		t, err := parse(v)
		if err != nil {
			return rng, &domain.ValidationError{Reasons: []string{"startDate must be RFC 3339 or YYYY-MM-DD"}}
		}
		rng.Start = t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parse(v)
		if err != nil {
			return rng, &domain.ValidationError{Reasons: []string{"endDate must be RFC 3339 or YYYY-MM-DD"}}
		}
		rng.End = t
	}
	return rng, nil
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "validation failed",
			"reasons": verr.Reasons,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "not found",
		})
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// GetFootfallSummary returns merged place estimates for a state, grouped by
// city.
func (h *Handler) GetFootfallSummary(c *fiber.Ctx) error {
	rng, err := parseTimeRange(c)
	if err != nil {
		return respondError(c, err)
	}
	state := c.Query("state", defaultState)

	cities, err := h.analytics.FootfallSummary(c.Context(), state, rng)
	if err != nil {
		return respondError(c, err)
	}

	footfallQueries.WithLabelValues("summary").Inc()
	return c.JSON(fiber.Map{
		"success": true,
		"state":   state,
		"cities":  cities,
	})
}

// GetFootfallSeries returns the blended crowd curve for one place.
func (h *Handler) GetFootfallSeries(c *fiber.Ctx) error {
	rng, err := parseTimeRange(c)
	if err != nil {
		return respondError(c, err)
	}
	iv, err := footfall.ParseInterval(c.Query("interval"))
	if err != nil {
		return respondError(c, &domain.ValidationError{Reasons: []string{err.Error()}})
	}

	series, err := h.analytics.FootfallSeries(
		c.Context(),
		c.Query("state", defaultState),
		c.Query("city"),
		c.Query("place"),
		rng,
		iv,
	)
	if err != nil {
		return respondError(c, err)
	}

	footfallQueries.WithLabelValues("series").Inc()
	return c.JSON(fiber.Map{
		"success": true,
		"series":  series,
	})
}

// GetLowCrowd returns places worth recommending to visitors.
func (h *Handler) GetLowCrowd(c *fiber.Ctx) error {
	recs, err := h.analytics.RecommendLowCrowd(
		c.Context(),
		c.Query("state", defaultState),
		c.Query("district"),
		c.Query("search"),
		c.QueryInt("limit", footfall.DefaultLimit),
	)
	if err != nil {
		return respondError(c, err)
	}

	footfallQueries.WithLabelValues("recommend_low").Inc()
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(recs),
		"data":    recs,
	})
}

// GetHighCrowd returns crowded places with their crowd level attached.
func (h *Handler) GetHighCrowd(c *fiber.Ctx) error {
	recs, err := h.analytics.RecommendHighCrowd(
		c.Context(),
		c.Query("state", defaultState),
		c.Query("district"),
		c.Query("search"),
		c.QueryInt("limit", footfall.DefaultLimit),
	)
	if err != nil {
		return respondError(c, err)
	}

	footfallQueries.WithLabelValues("recommend_high").Inc()
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(recs),
		"data":    recs,
	})
}

// GetVisitorAnalytics returns telecom-only per-place rollups.
func (h *Handler) GetVisitorAnalytics(c *fiber.Ctx) error {
	rng, err := parseTimeRange(c)
	if err != nil {
		return respondError(c, err)
	}

	rows, err := h.analytics.VisitorAnalytics(c.Context(), domain.TelecomFilter{
		State: c.Query("state"),
		City:  c.Query("city"),
		Place: c.Query("place"),
		Range: rng,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch visitor analytics")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(rows),
		"data":    rows,
	})
}

// GetDashboardStats returns the headline KPIs.
func (h *Handler) GetDashboardStats(c *fiber.Ctx) error {
	rng, err := parseTimeRange(c)
	if err != nil {
		return respondError(c, err)
	}

	stats, err := h.analytics.DashboardStats(c.Context(), rng)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch dashboard stats")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// BookTicket creates a booking and updates the place counter atomically.
func (h *Handler) BookTicket(c *fiber.Ctx) error {
	var req domain.Ticket
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ticket, place, err := h.booking.BookTicket(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	ticketsBookedTotal.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"ticket_id":    ticket.ID,
		"crowd_status": ticket.CrowdStatus,
		"crowd_count":  place.CrowdCount,
	})
}

// CheckIn records a QR check-in event.
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	var req domain.EntryEvent
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	event, err := h.booking.CheckIn(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	checkinsTotal.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"event":   event,
	})
}

// GetPlaceStatus returns the live counter state for one place.
func (h *Handler) GetPlaceStatus(c *fiber.Ctx) error {
	place, err := h.booking.PlaceStatus(
		c.Context(),
		c.Query("state", defaultState),
		c.Query("city"),
		c.Query("place"),
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"place":   place,
	})
}

// RegisterHotel creates or replaces a hotel record.
func (h *Handler) RegisterHotel(c *fiber.Ctx) error {
	var req domain.Hotel
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.booking.RegisterHotel(c.Context(), req); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// GetFootfallReport streams the current summary as an xlsx attachment.
func (h *Handler) GetFootfallReport(c *fiber.Ctx) error {
	rng, err := parseTimeRange(c)
	if err != nil {
		return respondError(c, err)
	}
	state := c.Query("state", defaultState)

	cities, err := h.analytics.FootfallSummary(c.Context(), state, rng)
	if err != nil {
		return respondError(c, err)
	}

	report, err := export.FootfallReport(cities)
	if err != nil {
		h.log.WithError(err).Error("failed to build footfall report")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to build report")
	}
	defer report.Close()

	buf, err := report.WriteToBuffer()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to encode report")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="footfall-report.xlsx"`)
	return c.Send(buf.Bytes())
}
