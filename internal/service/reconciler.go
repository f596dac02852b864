package service

import (
	"context"
	"log"
	"time"

	"siteqa-reports/internal/dispatch"
	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/repository"

	"github.com/robfig/cron/v3"
)

// Reconciler periodically re-dispatches queued entries that have sat too
// long without a worker picking them up. Dispatch is at-most-once with no
// acknowledgement channel, so a row can be left queued with no worker ever
// notified; this sweep closes that gap.
type Reconciler struct {
	repo         repository.ReportRepository
	dispatcher   dispatch.Dispatcher
	metrics      *metrics.Metrics
	cron         *cron.Cron
	schedule     string
	stalledAfter time.Duration
}

// NewReconciler creates a reconciler; schedule is a cron spec with seconds
func NewReconciler(repo repository.ReportRepository, dispatcher dispatch.Dispatcher, metrics *metrics.Metrics, schedule string, stalledAfter time.Duration) *Reconciler {
	return &Reconciler{
		repo:         repo,
		dispatcher:   dispatcher,
		metrics:      metrics,
		cron:         cron.New(cron.WithSeconds()),
		schedule:     schedule,
		stalledAfter: stalledAfter,
	}
}

// Start schedules and starts the sweep
func (r *Reconciler) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("dispatch reconciler started, schedule=%q stalled_after=%s", r.schedule, r.stalledAfter)
	return nil
}

// Stop stops the cron scheduler
func (r *Reconciler) Stop() {
	r.cron.Stop()
	log.Println("dispatch reconciler stopped")
}

// Sweep re-dispatches every queued entry older than the stall threshold.
// Returns how many entries were re-dispatched.
func (r *Reconciler) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-r.stalledAfter)
	entries, err := r.repo.ListStalledQueued(ctx, cutoff)
	if err != nil {
		log.Printf("reconciler: stalled query failed: %v", err)
		return 0
	}

	dispatched := 0
	for _, entry := range entries {
		if err := r.dispatcher.DispatchReportJob(ctx, dispatch.JobForEntry(entry)); err != nil {
			r.metrics.IncrementDispatchFailures()
			log.Printf("report_id=%s: reconciler dispatch failed: %v", entry.ID, err)
			continue
		}
		dispatched++
		log.Printf("report_id=%s: re-dispatched after %s queued", entry.ID, time.Since(entry.QueuedAt).Round(time.Second))
	}
	return dispatched
}
