package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	ticketsBookedTotal prometheus.Counter
	checkinsTotal      prometheus.Counter
	footfallQueries    *prometheus.CounterVec
)

// InitMetrics registers the service counters. Call once at startup.
func InitMetrics() {
	ticketsBookedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tourpulse",
		Name:      "tickets_booked_total",
		Help:      "Total number of successfully booked tickets.",
	})
	checkinsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tourpulse",
		Name:      "checkins_total",
		Help:      "Total number of recorded QR check-in events.",
	})
	footfallQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourpulse",
		Name:      "footfall_queries_total",
		Help:      "Total number of footfall analytics queries by view.",
	}, []string{"view"})
	prometheus.MustRegister(ticketsBookedTotal, checkinsTotal, footfallQueries)
}

// Metrics serves the default gatherer in the Prometheus text format.
func (h *Handler) Metrics(c *fiber.Ctx) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to gather metrics")
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode metrics")
		}
	}

	c.Set(fiber.HeaderContentType, string(expfmt.FmtText))
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}
