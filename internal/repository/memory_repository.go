package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"siteqa-reports/internal/models"
)

// MemoryRepository implements ReportRepository with an in-process map.
// Used by tests and by the "memory" store backend for local development.
// Not horizontally scalable: state is lost on restart and never shared
// across instances.
type MemoryRepository struct {
	mu          sync.RWMutex
	reports     map[string]*models.ReportQueueEntry
	memberships map[string][]models.Membership
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		reports:     make(map[string]*models.ReportQueueEntry),
		memberships: make(map[string][]models.Membership),
	}
}

// AddMembership records an (organization, role) pair for a user
func (r *MemoryRepository) AddMembership(userID, organizationID string, role models.OrgRole) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberships[userID] = append(r.memberships[userID], models.Membership{
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
	})
}

func (r *MemoryRepository) CreateReport(ctx context.Context, entry *models.ReportQueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *entry
	r.reports[entry.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetReportByID(ctx context.Context, id string) (*models.ReportQueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, exists := r.reports[id]
	if !exists {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (r *MemoryRepository) ListReportsByOrganization(ctx context.Context, organizationID string) ([]*models.ReportQueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []*models.ReportQueueEntry
	for _, entry := range r.reports {
		if entry.OrganizationID == organizationID {
			clone := *entry
			entries = append(entries, &clone)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueuedAt.After(entries[j].QueuedAt)
	})
	return entries, nil
}

func (r *MemoryRepository) RequeueReport(ctx context.Context, id string) (*models.ReportQueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.reports[id]
	if !exists {
		return nil, nil
	}
	if err := entry.Requeue(); err != nil {
		// Condition no longer holds; the caller re-reads and reports the
		// current state.
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (r *MemoryRepository) DeleteReport(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reports[id]; !exists {
		return 0, nil
	}
	delete(r.reports, id)
	return 1, nil
}

func (r *MemoryRepository) MarkProcessing(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.reports[id]
	if !exists {
		return fmt.Errorf("report %s not found", id)
	}
	return entry.Start()
}

func (r *MemoryRepository) UpdateProgress(ctx context.Context, id string, progress int, currentStep string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.reports[id]
	if !exists || entry.Status != models.StatusProcessing {
		return nil
	}
	entry.Progress = progress
	entry.CurrentStep = currentStep
	return nil
}

func (r *MemoryRepository) MarkCompleted(ctx context.Context, id string, fileURL string, fileSizeBytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.reports[id]
	if !exists {
		return fmt.Errorf("report %s not found", id)
	}
	return entry.Complete(fileURL, fileSizeBytes)
}

func (r *MemoryRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.reports[id]
	if !exists {
		return fmt.Errorf("report %s not found", id)
	}
	return entry.Fail(errorMessage)
}

func (r *MemoryRepository) ListStalledQueued(ctx context.Context, olderThan time.Time) ([]*models.ReportQueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []*models.ReportQueueEntry
	for _, entry := range r.reports {
		if entry.Status == models.StatusQueued && entry.QueuedAt.Before(olderThan) {
			clone := *entry
			entries = append(entries, &clone)
		}
	}
	return entries, nil
}

func (r *MemoryRepository) GetMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	memberships := make([]models.Membership, len(r.memberships[userID]))
	copy(memberships, r.memberships[userID])
	return memberships, nil
}
