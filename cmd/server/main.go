package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tourpulse/backend/internal/delivery/http"
	"github.com/tourpulse/backend/internal/domain"
	"github.com/tourpulse/backend/internal/repository/memory"
	"github.com/tourpulse/backend/internal/repository/postgres"
	"github.com/tourpulse/backend/internal/service"
	"github.com/tourpulse/backend/internal/simulate"
	"github.com/tourpulse/backend/pkg/logger"
)

func main() {
	// Load environment variables; fall back to the system environment.
	_ = godotenv.Load()

	log := logger.New().WithField("service", "tourpulse-backend")
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Store selection: Postgres when configured, otherwise in-memory demo
	// mode seeded with simulated telecom windows.
	var store domain.Store
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" && !cfg.DemoMode {
		var err error
		pool, err = connectWithRetry(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("could not connect to database")
		}
		defer pool.Close()

		pg := postgres.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
		store = pg
		log.Info("connected to PostgreSQL")
	} else {
		mem := memory.New()
		if err := simulate.Seed(ctx, mem, cfg.SeedHours); err != nil {
			log.WithError(err).Fatal("demo seeding failed")
		}
		store = mem
		log.WithField("seed_hours", cfg.SeedHours).Info("running in demo mode with simulated telecom data")
	}

	// Dependency injection: services
	analyticsSvc := service.NewAnalyticsService(store, cfg.MinConfidence, log)
	bookingSvc := service.NewBookingService(store, log)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TourPulse API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.InitMetrics()
	handler := http.NewHandler(analyticsSvc, bookingSvc, store, log)
	http.SetupRoutes(app, handler)

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}
	log.Info("server exited gracefully")
}

// connectWithRetry opens the pool and pings it under an exponential backoff
// policy, so a database that is still starting does not kill the process.
func connectWithRetry(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 20 * time.Second
	if err := backoff.Retry(func() error {
		return pool.Ping(ctx)
	}, backoff.WithContext(policy, ctx)); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type Config struct {
	DatabaseURL   string
	Port          string
	Env           string
	MinConfidence float64
	DemoMode      bool
	SeedHours     int
	AllowOrigins  string
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("GO_ENV", "development"),
		MinConfidence: getEnvFloat("MIN_CONFIDENCE", 0.5),
		DemoMode:      getEnv("DEMO_MODE", "") == "true",
		SeedHours:     getEnvInt("SEED_HOURS", 48),
		AllowOrigins:  getEnv("ALLOW_ORIGINS", "*"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
