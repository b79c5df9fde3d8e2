package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/surf-forecast-aggregation/internal/api/http"
	"github.com/i474232898/surf-forecast-aggregation/internal/config"
	"github.com/i474232898/surf-forecast-aggregation/internal/scheduler"
	"github.com/i474232898/surf-forecast-aggregation/internal/store"
	pgstore "github.com/i474232898/surf-forecast-aggregation/internal/store/postgres"
	"github.com/i474232898/surf-forecast-aggregation/internal/surf"
	"github.com/i474232898/surf-forecast-aggregation/internal/surf/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store: Postgres when configured, otherwise in-memory.
	var recordStore surf.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgstore.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()

		if err := pgstore.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("db schema: %v", err)
		}
		recordStore = pgstore.NewRepository(pool)
	} else {
		log.Printf("INFO: DATABASE_URL not set; using in-memory store")
		recordStore = store.NewMemoryStore(cfg.RequestLogSize)
	}

	spots := store.NewSpotDirectory(cfg.Spots)

	// Shared fetcher for outbound provider calls.
	fetcher := providers.NewFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, providers.DefaultBackoff)

	provs := []surf.Provider{
		providers.NewMSWProvider(providers.Config{APIKey: cfg.MSWAPIKey}, recordStore),
		providers.NewSpitcastProvider(recordStore),
		providers.NewSurflineProvider(
			providers.Config{ForecastDays: cfg.SurflineDays},
			providers.SurflineOptions{UseNearshore: cfg.SurflineNearshore, GetAllSpots: cfg.SurflineAllSpots},
			recordStore,
			spots,
		),
	}

	service := surf.NewService(recordStore, spots, fetcher, provs)

	// Scheduler that periodically fetches and stores forecasts.
	sched := scheduler.New(cfg.Spots, cfg.FetchInterval, cfg.FetchConcurrency, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "surf-forecast-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "surf-forecast-aggregation",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
