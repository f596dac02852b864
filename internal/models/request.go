package models

// CreateReportRequest represents the request to queue a new report
type CreateReportRequest struct {
	OrganizationID string                 `json:"organizationId" binding:"required"`
	ReportType     ReportType             `json:"reportType" binding:"required"`
	Format         ReportFormat           `json:"format" binding:"required"`
	Parameters     map[string]interface{} `json:"parameters"`
	MaxRetries     *int                   `json:"maxRetries,omitempty"`
}

// ReportResponse represents the response when creating or retrying a report
type ReportResponse struct {
	ReportID string `json:"reportId"`
	Status   string `json:"status"`
}

// DeleteResponse reports how many rows the delete actually removed, so
// callers can tell "it was already gone" from "I just deleted it".
type DeleteResponse struct {
	ReportID string `json:"reportId"`
	Deleted  int64  `json:"deleted"`
	Message  string `json:"message"`
}

// DownloadInfo is the resolved location of a completed report's artifact.
// The caller fetches the bytes directly from the object store.
type DownloadInfo struct {
	ReportID      string       `json:"reportId"`
	FileURL       string       `json:"fileUrl"`
	FileName      string       `json:"fileName"`
	Format        ReportFormat `json:"format"`
	FileSizeBytes int64        `json:"fileSizeBytes"`
}
