package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/geo-feature-maps/internal/api/http"
	"github.com/i474232898/geo-feature-maps/internal/config"
	"github.com/i474232898/geo-feature-maps/internal/imagery"
	"github.com/i474232898/geo-feature-maps/internal/imagery/earthengine"
	"github.com/i474232898/geo-feature-maps/internal/scheduler"
	"github.com/i474232898/geo-feature-maps/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	catalog, err := imagery.LoadCatalog(cfg.FeatureCatalogFile)
	if err != nil {
		log.Fatalf("failed to load feature catalog: %v", err)
	}

	// Service-account credentials are loaded once for the life of the process.
	creds, err := earthengine.LoadServiceAccount(context.Background(), cfg.ServiceAccountKeyFile, cfg.HTTPTimeout)
	if err != nil {
		log.Fatalf("failed to load earth engine credentials: %v", err)
	}
	project := cfg.Project
	if project == "" {
		project = creds.ProjectID
	}
	if project == "" {
		log.Fatalf("no earth engine project: set EE_PROJECT or use a key file with project_id")
	}
	client := earthengine.NewClient(creds.Client, project, cfg.BaseURL)

	opts := []imagery.Option{}

	if cfg.RecordGenerations {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		recorder, err := store.NewPostgresRecorder(ctx, cfg.PostgresURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to start generation recorder: %v", err)
		}
		defer recorder.Close()
		opts = append(opts, imagery.WithRecorder(recorder))
	}

	// Monthly value cache for completed months, swept in the background. Started last so
	// no later fatal exit skips sched.Stop.
	if cfg.CacheMaxAge > 0 {
		memStore := store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheMaxAge)
		opts = append(opts, imagery.WithCache(memStore))

		sched := scheduler.New(cfg.CacheSweepInterval, memStore)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	service := imagery.NewService(client, catalog, cfg.AnalysisStartDate, opts...)

	// Generation walks every month since the start date, so allow long requests.
	app := fiber.New(fiber.Config{
		AppName:               "geo-feature-maps",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "geo-feature-maps",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Printf("INFO: listening on :%s (project %s)", cfg.Port, project)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
