package http

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, h *Handler) {
	// Health check
	app.Get("/health", h.HealthCheck)

	// Prometheus scrape target
	app.Get("/metrics", h.Metrics)

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Footfall analytics
		api.Get("/footfall", h.GetFootfallSummary)
		api.Get("/footfall/series", h.GetFootfallSeries)
		api.Get("/footfall/report", h.GetFootfallReport)

		// Recommendations
		api.Get("/recommendations/low-crowd", h.GetLowCrowd)
		api.Get("/recommendations/high-crowd", h.GetHighCrowd)

		// Telecom drilldowns and dashboard KPIs
		api.Get("/visitors/analytics", h.GetVisitorAnalytics)
		api.Get("/dashboard/stats", h.GetDashboardStats)

		// Write path
		api.Post("/tickets", h.BookTicket)
		api.Post("/checkin", h.CheckIn)
		api.Post("/hotels", h.RegisterHotel)

		// Live place counters
		api.Get("/places/status", h.GetPlaceStatus)
	}
}
