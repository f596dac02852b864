package worker

import (
	"strings"
	"testing"

	"siteqa-reports/internal/dispatch"
	"siteqa-reports/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJob(format models.ReportFormat) dispatch.ReportJob {
	return dispatch.ReportJob{
		ReportID:       "r1",
		ReportType:     models.ReportTypeNCRSummary,
		Format:         format,
		Parameters:     map[string]interface{}{"projectId": "p1", "from": "2026-08-01"},
		OrganizationID: "org-a",
		RequestedBy:    "user-x",
	}
}

func TestRenderReport_PDF(t *testing.T) {
	data, contentType, err := renderReport(sampleJob(models.FormatPDF))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRenderReport_CSV(t *testing.T) {
	data, contentType, err := renderReport(sampleJob(models.FormatCSV))
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(data)
	assert.Contains(t, body, "report_id,r1")
	assert.Contains(t, body, "organization_id,org-a")
	assert.Contains(t, body, "projectId,p1")

	// Parameter rows come out in sorted key order
	assert.Less(t, strings.Index(body, "from,"), strings.Index(body, "projectId,"))
}

func TestRenderReport_ExcelFallsBackToCSV(t *testing.T) {
	data, contentType, err := renderReport(sampleJob(models.FormatExcel))
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(data), "report_id,r1")
}

func TestRenderReport_UnknownFormat(t *testing.T) {
	job := sampleJob("docx")
	_, _, err := renderReport(job)
	assert.Error(t, err)
}
