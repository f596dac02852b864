package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"siteqa-reports/internal/config"
	"siteqa-reports/internal/repository"
)

// Queue inspection tool for operators: prints every queue entry for an
// organization plus a per-status summary and any stalled queued rows.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: inspect-queue <organizationId>")
		os.Exit(1)
	}
	organizationID := os.Args[1]

	repo, err := repository.NewMongoRepository(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := repo.ListReportsByOrganization(ctx, organizationID)
	if err != nil {
		log.Fatalf("Failed to list reports: %v", err)
	}

	fmt.Printf("Organization %s: %d report(s)\n\n", organizationID, len(entries))

	statusCounts := make(map[string]int)
	for _, entry := range entries {
		statusCounts[string(entry.Status)]++
		fmt.Printf("  %s  %-10s  %-18s  %-6s  retries %d/%d",
			entry.ID, entry.Status, entry.ReportType, entry.Format, entry.RetryCount, entry.MaxRetries)
		if entry.ErrorMessage != "" {
			fmt.Printf("  error=%q", entry.ErrorMessage)
		}
		fmt.Println()
	}

	fmt.Println("\nBy status:")
	for _, status := range []string{"queued", "processing", "completed", "failed"} {
		fmt.Printf("  %-10s %d\n", status, statusCounts[status])
	}

	stalled, err := repo.ListStalledQueued(ctx, time.Now().Add(-cfg.Reconcile.StalledAfter))
	if err != nil {
		log.Fatalf("Failed to list stalled entries: %v", err)
	}
	if len(stalled) > 0 {
		fmt.Printf("\nWARNING: %d queued entry(ies) older than %s across all organizations:\n",
			len(stalled), cfg.Reconcile.StalledAfter)
		for _, entry := range stalled {
			fmt.Printf("  %s  org=%s  queued at %s\n",
				entry.ID, entry.OrganizationID, entry.QueuedAt.Format(time.RFC3339))
		}
	}
}
