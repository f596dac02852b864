package models

import (
	"errors"
	"fmt"
	"time"
)

// ReportStatus represents the lifecycle state of a queued report
type ReportStatus string

const (
	StatusQueued     ReportStatus = "queued"
	StatusProcessing ReportStatus = "processing"
	StatusCompleted  ReportStatus = "completed"
	StatusFailed     ReportStatus = "failed"
)

// ReportType identifies what kind of report to generate
type ReportType string

const (
	ReportTypeDailyDiaryExport ReportType = "daily_diary_export"
	ReportTypeNCRSummary       ReportType = "ncr_summary"
	ReportTypeITPRegister      ReportType = "itp_register"
	ReportTypeLotSummary       ReportType = "lot_summary"
	ReportTypeProjectSummary   ReportType = "project_summary"
)

// ReportFormat identifies the output file format
type ReportFormat string

const (
	FormatPDF   ReportFormat = "pdf"
	FormatExcel ReportFormat = "excel"
	FormatCSV   ReportFormat = "csv"
)

var (
	// ErrInvalidTransition is returned when a lifecycle method is called on
	// an entry whose current status does not permit the transition.
	ErrInvalidTransition = errors.New("invalid report status transition")

	// ErrRetryLimitReached is returned when a requeue would exceed MaxRetries.
	ErrRetryLimitReached = errors.New("maximum retry limit reached")

	// ErrMissingFileURL is returned when a completion carries no file reference.
	ErrMissingFileURL = errors.New("completed report requires a file reference")
)

// ValidReportType reports whether t is a known report type
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportTypeDailyDiaryExport, ReportTypeNCRSummary, ReportTypeITPRegister,
		ReportTypeLotSummary, ReportTypeProjectSummary:
		return true
	}
	return false
}

// ValidReportFormat reports whether f is a known output format
func ValidReportFormat(f ReportFormat) bool {
	switch f {
	case FormatPDF, FormatExcel, FormatCSV:
		return true
	}
	return false
}

// ReportQueueEntry represents one requested report artifact in the queue
type ReportQueueEntry struct {
	ID             string                 `json:"id" bson:"_id"`
	OrganizationID string                 `json:"organizationId" bson:"organizationId"`
	RequestedBy    string                 `json:"requestedBy" bson:"requestedBy"`
	ReportType     ReportType             `json:"reportType" bson:"reportType"`
	Format         ReportFormat           `json:"format" bson:"format"`
	Parameters     map[string]interface{} `json:"parameters" bson:"parameters"`
	Status         ReportStatus           `json:"status" bson:"status"`
	Progress       int                    `json:"progress" bson:"progress"`
	CurrentStep    string                 `json:"currentStep,omitempty" bson:"currentStep,omitempty"`
	ErrorMessage   string                 `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	RetryCount     int                    `json:"retryCount" bson:"retryCount"`
	MaxRetries     int                    `json:"maxRetries" bson:"maxRetries"`
	FileURL        string                 `json:"fileUrl,omitempty" bson:"fileUrl,omitempty"`
	FileSizeBytes  int64                  `json:"fileSizeBytes,omitempty" bson:"fileSizeBytes,omitempty"`
	QueuedAt       time.Time              `json:"queuedAt" bson:"queuedAt"`
	StartedAt      *time.Time             `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	FailedAt       *time.Time             `json:"failedAt,omitempty" bson:"failedAt,omitempty"`
}

// NewReportQueueEntry creates an entry in the queued state
func NewReportQueueEntry(id, organizationID, requestedBy string, reportType ReportType, format ReportFormat, parameters map[string]interface{}, maxRetries int) *ReportQueueEntry {
	return &ReportQueueEntry{
		ID:             id,
		OrganizationID: organizationID,
		RequestedBy:    requestedBy,
		ReportType:     reportType,
		Format:         format,
		Parameters:     parameters,
		Status:         StatusQueued,
		RetryCount:     0,
		MaxRetries:     maxRetries,
		QueuedAt:       time.Now(),
	}
}

// Start transitions a queued entry to processing
func (e *ReportQueueEntry) Start() error {
	if e.Status != StatusQueued {
		return fmt.Errorf("%w: cannot start a %s report", ErrInvalidTransition, e.Status)
	}
	now := time.Now()
	e.Status = StatusProcessing
	e.StartedAt = &now
	return nil
}

// Complete transitions a processing entry to completed with its file reference
func (e *ReportQueueEntry) Complete(fileURL string, fileSizeBytes int64) error {
	if e.Status != StatusProcessing {
		return fmt.Errorf("%w: cannot complete a %s report", ErrInvalidTransition, e.Status)
	}
	if fileURL == "" {
		return ErrMissingFileURL
	}
	now := time.Now()
	e.Status = StatusCompleted
	e.FileURL = fileURL
	e.FileSizeBytes = fileSizeBytes
	e.Progress = 100
	e.CompletedAt = &now
	return nil
}

// Fail transitions a processing entry to failed with an error message
func (e *ReportQueueEntry) Fail(message string) error {
	if e.Status != StatusProcessing {
		return fmt.Errorf("%w: cannot fail a %s report", ErrInvalidTransition, e.Status)
	}
	if message == "" {
		message = "report generation failed"
	}
	now := time.Now()
	e.Status = StatusFailed
	e.ErrorMessage = message
	e.FailedAt = &now
	return nil
}

// Requeue transitions a failed entry back to queued for another attempt.
// Clears the per-attempt fields and increments the retry count.
func (e *ReportQueueEntry) Requeue() error {
	if e.Status != StatusFailed {
		return fmt.Errorf("%w: only failed reports can be requeued", ErrInvalidTransition)
	}
	if e.RetryCount >= e.MaxRetries {
		return ErrRetryLimitReached
	}
	e.Status = StatusQueued
	e.RetryCount++
	e.ErrorMessage = ""
	e.Progress = 0
	e.CurrentStep = ""
	e.StartedAt = nil
	e.CompletedAt = nil
	e.FailedAt = nil
	e.QueuedAt = time.Now()
	return nil
}

// RetriesExhausted reports whether the entry has used up its retry budget
func (e *ReportQueueEntry) RetriesExhausted() bool {
	return e.RetryCount >= e.MaxRetries
}

// FileName returns a display name for the generated artifact
func (e *ReportQueueEntry) FileName() string {
	label := string(e.ReportType)
	switch e.ReportType {
	case ReportTypeDailyDiaryExport:
		label = "Daily Diary Export"
	case ReportTypeNCRSummary:
		label = "NCR Summary"
	case ReportTypeITPRegister:
		label = "ITP Register"
	case ReportTypeLotSummary:
		label = "Lot Summary"
	case ReportTypeProjectSummary:
		label = "Project Summary"
	}
	ext := string(e.Format)
	if e.Format == FormatExcel {
		ext = "csv" // excel output is produced as CSV
	}
	return fmt.Sprintf("%s %s.%s", label, e.QueuedAt.Format("2006-01-02"), ext)
}
