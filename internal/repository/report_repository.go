package repository

import (
	"context"
	"fmt"
	"time"

	"siteqa-reports/internal/models"
)

// ErrPermissionDenied is returned when the storage layer's own access policy
// explicitly vetoes an operation, as opposed to the operation simply matching
// zero rows. Callers must treat the two cases differently.
type ErrPermissionDenied struct {
	Op       string
	ReportID string
}

func (e *ErrPermissionDenied) Error() string {
	return fmt.Sprintf("storage policy denied %s on report %s", e.Op, e.ReportID)
}

// ReportRepository defines persistence for report queue entries and the
// membership lookup used for authorization.
type ReportRepository interface {
	// CreateReport inserts a new entry in the queued state.
	CreateReport(ctx context.Context, entry *models.ReportQueueEntry) error

	// GetReportByID returns the entry, or (nil, nil) when it does not exist.
	GetReportByID(ctx context.Context, id string) (*models.ReportQueueEntry, error)

	// ListReportsByOrganization returns all entries owned by one organization,
	// newest first.
	ListReportsByOrganization(ctx context.Context, organizationID string) ([]*models.ReportQueueEntry, error)

	// RequeueReport performs the failed -> queued transition as a single
	// conditional update: it only applies when the entry is still failed with
	// retries remaining. Returns the updated entry, or (nil, nil) when the
	// condition no longer held.
	RequeueReport(ctx context.Context, id string) (*models.ReportQueueEntry, error)

	// DeleteReport removes the entry by id and returns how many rows were
	// affected (0 or 1). A storage-level policy veto surfaces as
	// *ErrPermissionDenied.
	DeleteReport(ctx context.Context, id string) (int64, error)

	// Worker-side transitions.
	MarkProcessing(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, progress int, currentStep string) error
	MarkCompleted(ctx context.Context, id string, fileURL string, fileSizeBytes int64) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error

	// ListStalledQueued returns entries still queued whose queuedAt is older
	// than the cutoff; used by the dispatch reconciliation sweep.
	ListStalledQueued(ctx context.Context, olderThan time.Time) ([]*models.ReportQueueEntry, error)

	// GetMemberships returns all (organization, role) pairs for a user.
	GetMemberships(ctx context.Context, userID string) ([]models.Membership, error)
}
