package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/models"
	"siteqa-reports/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_RedispatchesStalledQueuedEntries(t *testing.T) {
	repo := repository.NewMemoryRepository()
	dispatcher := &fakeDispatcher{}
	r := NewReconciler(repo, dispatcher, metrics.NewMetrics(), "0 */2 * * * *", 5*time.Minute)

	ctx := context.Background()

	stale := models.NewReportQueueEntry("stale", "org-a", "user-x", models.ReportTypeNCRSummary, models.FormatPDF, nil, 3)
	stale.QueuedAt = time.Now().Add(-10 * time.Minute)
	require.NoError(t, repo.CreateReport(ctx, stale))

	fresh := models.NewReportQueueEntry("fresh", "org-a", "user-x", models.ReportTypeNCRSummary, models.FormatPDF, nil, 3)
	require.NoError(t, repo.CreateReport(ctx, fresh))

	processing := models.NewReportQueueEntry("busy", "org-a", "user-x", models.ReportTypeNCRSummary, models.FormatPDF, nil, 3)
	processing.QueuedAt = time.Now().Add(-10 * time.Minute)
	require.NoError(t, repo.CreateReport(ctx, processing))
	require.NoError(t, repo.MarkProcessing(ctx, "busy"))

	dispatched := r.Sweep(ctx)
	assert.Equal(t, 1, dispatched)
	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, "stale", dispatcher.jobs[0].ReportID)
}

func TestSweep_CountsOnlySuccessfulDispatches(t *testing.T) {
	repo := repository.NewMemoryRepository()
	dispatcher := &fakeDispatcher{err: errors.New("nats: no servers")}
	m := metrics.NewMetrics()
	r := NewReconciler(repo, dispatcher, m, "0 */2 * * * *", time.Minute)

	ctx := context.Background()
	stale := models.NewReportQueueEntry("stale", "org-a", "user-x", models.ReportTypeLotSummary, models.FormatCSV, nil, 3)
	stale.QueuedAt = time.Now().Add(-10 * time.Minute)
	require.NoError(t, repo.CreateReport(ctx, stale))

	dispatched := r.Sweep(ctx)
	assert.Zero(t, dispatched)
	assert.Equal(t, int64(1), m.GetSnapshot()["dispatch_failures"])
}
