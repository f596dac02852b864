package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"siteqa-reports/internal/dispatch"
	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/models"
	"siteqa-reports/internal/repository"

	"github.com/google/uuid"
)

// FileURLResolver turns a stored file reference into a fetchable URL.
// Object-store keys get presigned; absolute URLs pass through.
type FileURLResolver interface {
	ResolveFileURL(ctx context.Context, ref string) (string, error)
}

// ReportService owns the report queue lifecycle: intake, the failed->queued
// retry transition, deletion, and download resolution. The worker-side
// transitions (queued->processing->completed/failed) are written by the
// external worker, not here.
type ReportService struct {
	repo              repository.ReportRepository
	dispatcher        dispatch.Dispatcher
	metrics           *metrics.Metrics
	urlResolver       FileURLResolver
	defaultMaxRetries int
}

// NewReportService creates a new report service. urlResolver may be nil, in
// which case stored file references are returned as-is.
func NewReportService(repo repository.ReportRepository, dispatcher dispatch.Dispatcher, metrics *metrics.Metrics, urlResolver FileURLResolver, defaultMaxRetries int) *ReportService {
	return &ReportService{
		repo:              repo,
		dispatcher:        dispatcher,
		metrics:           metrics,
		urlResolver:       urlResolver,
		defaultMaxRetries: defaultMaxRetries,
	}
}

// authorize resolves the caller's organization memberships
func (s *ReportService) authorize(ctx context.Context, caller models.Identity) (AuthorizationContext, error) {
	memberships, err := s.repo.GetMemberships(ctx, caller.UserID)
	if err != nil {
		log.Printf("user_id=%s: membership lookup failed: %v", caller.UserID, err)
		return AuthorizationContext{}, errUnexpected(err)
	}
	return AuthorizationContext{UserID: caller.UserID, Memberships: memberships}, nil
}

// visibleReport loads an entry and applies the tenant visibility rule.
// Missing entries and entries in organizations the caller does not belong
// to both come back as NotFound.
func (s *ReportService) visibleReport(ctx context.Context, authz AuthorizationContext, id string) (*models.ReportQueueEntry, error) {
	entry, err := s.repo.GetReportByID(ctx, id)
	if err != nil {
		log.Printf("report_id=%s: lookup failed: %v", id, err)
		return nil, errUnexpected(err)
	}
	if entry == nil || !authz.CanView(entry) {
		return nil, errNotFound()
	}
	return entry, nil
}

// CreateReport validates the request, inserts a queued entry, and notifies
// the worker once.
func (s *ReportService) CreateReport(ctx context.Context, caller models.Identity, req *models.CreateReportRequest) (*models.ReportQueueEntry, error) {
	if !models.ValidReportType(req.ReportType) {
		return nil, errInvalidState("Unknown report type")
	}
	if !models.ValidReportFormat(req.Format) {
		return nil, errInvalidState("Unknown report format")
	}

	authz, err := s.authorize(ctx, caller)
	if err != nil {
		return nil, err
	}
	if _, ok := authz.RoleIn(req.OrganizationID); !ok {
		return nil, errNotFound()
	}

	maxRetries := s.defaultMaxRetries
	if req.MaxRetries != nil && *req.MaxRetries >= 0 {
		maxRetries = *req.MaxRetries
	}

	entry := models.NewReportQueueEntry(
		uuid.New().String(),
		req.OrganizationID,
		caller.UserID,
		req.ReportType,
		req.Format,
		req.Parameters,
		maxRetries,
	)

	if err := s.repo.CreateReport(ctx, entry); err != nil {
		log.Printf("report_id=%s: insert failed: %v", entry.ID, err)
		return nil, errUnexpected(err)
	}
	s.metrics.IncrementCreated()
	log.Printf("report_id=%s: queued, type=%s format=%s org=%s requested_by=%s",
		entry.ID, entry.ReportType, entry.Format, entry.OrganizationID, entry.RequestedBy)

	if err := s.dispatcher.DispatchReportJob(ctx, dispatch.JobForEntry(entry)); err != nil {
		// Row stays queued; the reconciliation sweep re-dispatches it.
		s.metrics.IncrementDispatchFailures()
		log.Printf("report_id=%s: worker dispatch failed: %v", entry.ID, err)
		return entry, errDispatchFailed(err)
	}
	return entry, nil
}

// GetReport returns one entry for status polling, under the visibility rule
func (s *ReportService) GetReport(ctx context.Context, caller models.Identity, id string) (*models.ReportQueueEntry, error) {
	authz, err := s.authorize(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.visibleReport(ctx, authz, id)
}

// ListReports returns all entries of one organization the caller belongs to
func (s *ReportService) ListReports(ctx context.Context, caller models.Identity, organizationID string) ([]*models.ReportQueueEntry, error) {
	authz, err := s.authorize(ctx, caller)
	if err != nil {
		return nil, err
	}
	if _, ok := authz.RoleIn(organizationID); !ok {
		return nil, errNotFound()
	}
	entries, err := s.repo.ListReportsByOrganization(ctx, organizationID)
	if err != nil {
		log.Printf("org_id=%s: report list failed: %v", organizationID, err)
		return nil, errUnexpected(err)
	}
	return entries, nil
}

// RetryReport re-queues a failed report for another attempt.
// Precondition order: visible, permitted, failed, retries remaining.
func (s *ReportService) RetryReport(ctx context.Context, caller models.Identity, id string) (*models.ReportQueueEntry, error) {
	authz, err := s.authorize(ctx, caller)
	if err != nil {
		return nil, err
	}

	entry, err := s.visibleReport(ctx, authz, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanRetry(entry) {
		return nil, errForbidden("Insufficient permissions to retry this report")
	}
	if entry.Status != models.StatusFailed {
		return nil, errInvalidState("Only failed reports can be retried")
	}
	if entry.RetriesExhausted() {
		return nil, errRetryExhausted()
	}

	requeued, err := s.repo.RequeueReport(ctx, id)
	if err != nil {
		log.Printf("report_id=%s: requeue failed: %v", id, err)
		return nil, errUnexpected(err)
	}
	if requeued == nil {
		// A concurrent actor changed the row between the check and the
		// conditional update.
		return nil, errInvalidState("Report state changed, retry not applied")
	}
	s.metrics.IncrementRetried()
	log.Printf("report_id=%s: requeued by user_id=%s, attempt %d/%d",
		id, caller.UserID, requeued.RetryCount, requeued.MaxRetries)

	// Retries preserve original provenance: the dispatched job carries the
	// original requester, not the retry actor.
	if err := s.dispatcher.DispatchReportJob(ctx, dispatch.JobForEntry(requeued)); err != nil {
		s.metrics.IncrementDispatchFailures()
		log.Printf("report_id=%s: worker dispatch failed after requeue: %v", id, err)
		return requeued, errDispatchFailed(err)
	}
	return requeued, nil
}

// DeleteReport permanently removes an entry and reports how many rows were
// actually removed. Zero rows is success-equivalent: a concurrent actor got
// there first.
func (s *ReportService) DeleteReport(ctx context.Context, caller models.Identity, id string) (int64, error) {
	authz, err := s.authorize(ctx, caller)
	if err != nil {
		return 0, err
	}

	entry, err := s.repo.GetReportByID(ctx, id)
	if err != nil {
		log.Printf("report_id=%s: lookup failed: %v", id, err)
		return 0, errUnexpected(err)
	}
	if entry == nil {
		// Already gone: a concurrent actor removed it first. Success-equivalent.
		log.Printf("report_id=%s: already deleted", id)
		return 0, nil
	}
	if !authz.CanView(entry) {
		return 0, errNotFound()
	}
	if !authz.CanDelete(entry) {
		return 0, errForbidden("Insufficient permissions to delete this report")
	}

	// Deletion is by id only; the visibility and role checks above are the
	// application-level gate, and the storage layer's policy is the final
	// arbiter. Any status is deletable.
	deleted, err := s.repo.DeleteReport(ctx, id)
	if err != nil {
		var denied *repository.ErrPermissionDenied
		if errors.As(err, &denied) {
			log.Printf("report_id=%s: storage policy vetoed delete for user_id=%s", id, caller.UserID)
			return 0, errForbidden("Storage policy denied the delete")
		}
		log.Printf("report_id=%s: delete failed: %v", id, err)
		return 0, errUnexpected(err)
	}
	if deleted > 0 {
		s.metrics.IncrementDeleted()
	}
	log.Printf("report_id=%s: deleted by user_id=%s, affected=%d", id, caller.UserID, deleted)
	return deleted, nil
}

// ResolveDownload resolves the downloadable location of a completed report.
// No bytes are proxied; the caller fetches from the object store directly.
func (s *ReportService) ResolveDownload(ctx context.Context, caller models.Identity, id string) (*models.DownloadInfo, error) {
	authz, err := s.authorize(ctx, caller)
	if err != nil {
		return nil, err
	}

	entry, err := s.visibleReport(ctx, authz, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.StatusCompleted {
		return nil, errInvalidState("Report is not ready for download")
	}
	if entry.FileURL == "" {
		// Should be implied by status=completed; verified independently.
		log.Printf("report_id=%s: completed report has no file reference", id)
		return nil, errUnavailable("Report file not available")
	}

	fileURL := entry.FileURL
	if s.urlResolver != nil && !strings.HasPrefix(fileURL, "http") {
		fileURL, err = s.urlResolver.ResolveFileURL(ctx, entry.FileURL)
		if err != nil {
			log.Printf("report_id=%s: file URL resolution failed: %v", id, err)
			return nil, errUnexpected(err)
		}
	}

	s.metrics.IncrementDownloads()
	// Audit trail: who resolved what, when.
	log.Printf("report_id=%s: download resolved for user_id=%s, file=%s size=%d",
		id, caller.UserID, entry.FileName(), entry.FileSizeBytes)

	return &models.DownloadInfo{
		ReportID:      entry.ID,
		FileURL:       fileURL,
		FileName:      entry.FileName(),
		Format:        entry.Format,
		FileSizeBytes: entry.FileSizeBytes,
	}, nil
}
