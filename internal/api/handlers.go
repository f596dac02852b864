package api

import (
	"encoding/json"
	"net/http"

	"siteqa-reports/internal/metrics"
	"siteqa-reports/internal/middleware"
	"siteqa-reports/internal/models"
	"siteqa-reports/internal/service"
	"siteqa-reports/internal/validation"

	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	reportService *service.ReportService
	validator     *validation.RequestValidator
	metrics       *metrics.Metrics
}

// NewHandlers creates a new handlers instance
func NewHandlers(reportService *service.ReportService, validator *validation.RequestValidator, metrics *metrics.Metrics) *Handlers {
	return &Handlers{
		reportService: reportService,
		validator:     validator,
		metrics:       metrics,
	}
}

// respondError maps a service failure to an HTTP response. Unexpected
// failures never leak internals to the caller.
func respondError(c *gin.Context, err error) {
	qerr, ok := service.AsQueueError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	var status int
	switch qerr.Kind {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindInvalidState, service.KindRetryExhausted:
		status = http.StatusConflict
	case service.KindDispatchFailed:
		status = http.StatusBadGateway
	case service.KindUnavailable:
		status = http.StatusInternalServerError
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": qerr.Message, "kind": string(qerr.Kind)})
}

func callerIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return models.Identity{}, false
	}
	return identity, true
}

// CreateReportHandler handles POST /api/reports
func (h *Handlers) CreateReportHandler(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if err := h.validator.ValidateCreateRequest(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req models.CreateReportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.reportService.CreateReport(c.Request.Context(), identity, &req)
	if err != nil {
		// The row may exist even when dispatch failed; report both.
		if qerr, ok := service.AsQueueError(err); ok && qerr.Kind == service.KindDispatchFailed && entry != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"reportId": entry.ID,
				"status":   string(entry.Status),
				"error":    qerr.Message,
				"kind":     string(qerr.Kind),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.ReportResponse{
		ReportID: entry.ID,
		Status:   string(entry.Status),
	})
}

// GetReportHandler handles GET /api/reports/:id
func (h *Handlers) GetReportHandler(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	entry, err := h.reportService.GetReport(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListReportsHandler handles GET /api/reports?organizationId=
func (h *Handlers) ListReportsHandler(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	organizationID := c.Query("organizationId")
	if organizationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organizationId is required"})
		return
	}

	entries, err := h.reportService.ListReports(c.Request.Context(), identity, organizationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": entries})
}

// RetryReportHandler handles POST /api/reports/:id/retry
func (h *Handlers) RetryReportHandler(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	entry, err := h.reportService.RetryReport(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		if qerr, ok := service.AsQueueError(err); ok && qerr.Kind == service.KindDispatchFailed && entry != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"reportId": entry.ID,
				"status":   string(entry.Status),
				"error":    qerr.Message,
				"kind":     string(qerr.Kind),
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReportResponse{
		ReportID: entry.ID,
		Status:   string(entry.Status),
	})
}

// DeleteReportHandler handles DELETE /api/reports/:id
func (h *Handlers) DeleteReportHandler(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	id := c.Param("id")
	deleted, err := h.reportService.DeleteReport(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Report deleted"
	if deleted == 0 {
		message = "Report was already deleted"
	}
	c.JSON(http.StatusOK, models.DeleteResponse{
		ReportID: id,
		Deleted:  deleted,
		Message:  message,
	})
}

// DownloadReportHandler handles GET /api/reports/:id/download
func (h *Handlers) DownloadReportHandler(c *gin.Context) {
	identity, ok := callerIdentity(c)
	if !ok {
		return
	}

	info, err := h.reportService.ResolveDownload(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetMetricsHandler handles GET /metrics
func (h *Handlers) GetMetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}
