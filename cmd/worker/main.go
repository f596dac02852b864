package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siteqa-reports/internal/config"
	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/repository"
	"siteqa-reports/internal/storage"
	"siteqa-reports/internal/worker"

	"github.com/nats-io/nats.go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The worker persists transitions, so it needs the shared store
	repo, err := repository.NewMongoRepository(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer repo.Close()

	if cfg.S3.Bucket == "" {
		log.Fatalf("S3_BUCKET is required for the worker")
	}
	store, err := storage.NewS3Service(&cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}

	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Name("siteqa-report-worker"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer conn.Close()

	metricsInstance := metrics.NewMetrics()
	w := worker.NewWorker(repo, store, metricsInstance, conn, cfg.NATS.Subject)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("shutting down worker...")
		cancel()
	}()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker error: %v", err)
	}

	log.Println("worker stopped")
}
