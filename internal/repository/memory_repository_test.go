package repository

import (
	"context"
	"testing"
	"time"

	"siteqa-reports/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntry(t *testing.T, repo *MemoryRepository, status models.ReportStatus) *models.ReportQueueEntry {
	t.Helper()
	entry := models.NewReportQueueEntry("r1", "org-a", "user-x", models.ReportTypeITPRegister, models.FormatPDF, nil, 3)
	require.NoError(t, repo.CreateReport(context.Background(), entry))

	switch status {
	case models.StatusProcessing:
		require.NoError(t, repo.MarkProcessing(context.Background(), entry.ID))
	case models.StatusCompleted:
		require.NoError(t, repo.MarkProcessing(context.Background(), entry.ID))
		require.NoError(t, repo.MarkCompleted(context.Background(), entry.ID, "org-a/reports/r1.pdf", 2048))
	case models.StatusFailed:
		require.NoError(t, repo.MarkProcessing(context.Background(), entry.ID))
		require.NoError(t, repo.MarkFailed(context.Background(), entry.ID, "render error"))
	}

	current, err := repo.GetReportByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, status, current.Status)
	return current
}

func TestMemoryRepository_GetReturnsNilForMissing(t *testing.T) {
	repo := NewMemoryRepository()
	entry, err := repo.GetReportByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestMemoryRepository_DeleteReportsAffectedCount(t *testing.T) {
	repo := NewMemoryRepository()
	seedEntry(t, repo, models.StatusCompleted)

	deleted, err := repo.DeleteReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Second delete affects zero rows and is not an error
	deleted, err = repo.DeleteReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestMemoryRepository_RequeueOnlyFailedWithBudget(t *testing.T) {
	repo := NewMemoryRepository()
	seedEntry(t, repo, models.StatusFailed)

	requeued, err := repo.RequeueReport(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, requeued)
	assert.Equal(t, models.StatusQueued, requeued.Status)
	assert.Equal(t, 1, requeued.RetryCount)
	assert.Empty(t, requeued.ErrorMessage)

	// Already queued: the conditional update matches nothing
	requeued, err = repo.RequeueReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.Nil(t, requeued)
}

func TestMemoryRepository_RequeueMissingReport(t *testing.T) {
	repo := NewMemoryRepository()
	requeued, err := repo.RequeueReport(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, requeued)
}

func TestMemoryRepository_ListStalledQueued(t *testing.T) {
	repo := NewMemoryRepository()
	stale := models.NewReportQueueEntry("old", "org-a", "user-x", models.ReportTypeLotSummary, models.FormatCSV, nil, 3)
	stale.QueuedAt = time.Now().Add(-10 * time.Minute)
	require.NoError(t, repo.CreateReport(context.Background(), stale))

	fresh := models.NewReportQueueEntry("new", "org-a", "user-x", models.ReportTypeLotSummary, models.FormatCSV, nil, 3)
	require.NoError(t, repo.CreateReport(context.Background(), fresh))

	entries, err := repo.ListStalledQueued(context.Background(), time.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "old", entries[0].ID)
}

func TestMemoryRepository_ListReportsByOrganizationNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	older := models.NewReportQueueEntry("a", "org-a", "user-x", models.ReportTypeNCRSummary, models.FormatPDF, nil, 3)
	older.QueuedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.CreateReport(context.Background(), older))

	newer := models.NewReportQueueEntry("b", "org-a", "user-x", models.ReportTypeNCRSummary, models.FormatPDF, nil, 3)
	require.NoError(t, repo.CreateReport(context.Background(), newer))

	other := models.NewReportQueueEntry("c", "org-b", "user-x", models.ReportTypeNCRSummary, models.FormatPDF, nil, 3)
	require.NoError(t, repo.CreateReport(context.Background(), other))

	entries, err := repo.ListReportsByOrganization(context.Background(), "org-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "a", entries[1].ID)
}

func TestMemoryRepository_Memberships(t *testing.T) {
	repo := NewMemoryRepository()
	repo.AddMembership("user-x", "org-a", models.RoleAdmin)
	repo.AddMembership("user-x", "org-b", models.RoleViewer)

	memberships, err := repo.GetMemberships(context.Background(), "user-x")
	require.NoError(t, err)
	assert.Len(t, memberships, 2)

	memberships, err = repo.GetMemberships(context.Background(), "user-y")
	require.NoError(t, err)
	assert.Empty(t, memberships)
}
