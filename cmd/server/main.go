package main

import (
	"log"

	"siteqa-reports/internal/api"
	"siteqa-reports/internal/config"
	"siteqa-reports/internal/dispatch"
	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/repository"
	"siteqa-reports/internal/service"
	"siteqa-reports/internal/storage"
	"siteqa-reports/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize repository
	var repo repository.ReportRepository
	switch cfg.Store.Backend {
	case "memory":
		log.Printf("Using in-memory store (single instance, volatile)")
		repo = repository.NewMemoryRepository()
	default:
		mongoRepo, err := repository.NewMongoRepository(cfg.Mongo)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoRepo.Close()
		repo = mongoRepo
	}

	// Initialize worker dispatcher
	dispatcher, err := dispatch.NewNATSDispatcher(cfg.NATS.URL, cfg.NATS.Subject)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer dispatcher.Close()

	// Initialize S3 presigner (optional - downloads return raw references
	// when object storage is not configured)
	var urlResolver service.FileURLResolver
	if cfg.S3.Bucket != "" {
		s3Service, err := storage.NewS3Service(&cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		urlResolver = s3Service
	} else {
		log.Printf("S3 not configured, download URLs returned as stored")
	}

	// Initialize services
	metricsInstance := metrics.NewMetrics()
	reportService := service.NewReportService(repo, dispatcher, metricsInstance, urlResolver, cfg.Reports.DefaultMaxRetries)

	validator, err := validation.NewRequestValidator()
	if err != nil {
		log.Fatalf("Failed to compile request schema: %v", err)
	}

	// Start the dispatch reconciliation sweep
	reconciler := service.NewReconciler(repo, dispatcher, metricsInstance, cfg.Reconcile.Schedule, cfg.Reconcile.StalledAfter)
	if err := reconciler.Start(); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}
	defer reconciler.Stop()

	// Initialize handlers and routes
	handlers := api.NewHandlers(reportService, validator, metricsInstance)
	router := api.SetupRoutes(handlers, cfg.JWT.Secret)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
