package worker

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"siteqa-reports/internal/dispatch"
	"siteqa-reports/internal/models"

	"github.com/jung-kurt/gofpdf/v2"
)

// renderReport produces the report artifact bytes and their content type.
// PDF output uses gofpdf; csv and excel both produce CSV bytes (spreadsheet
// applications open CSV directly, and no richer format is needed here).
func renderReport(job dispatch.ReportJob) ([]byte, string, error) {
	switch job.Format {
	case models.FormatPDF:
		data, err := renderPDF(job)
		return data, "application/pdf", err
	case models.FormatCSV, models.FormatExcel:
		data, err := renderCSV(job)
		return data, "text/csv", err
	default:
		return nil, "", fmt.Errorf("unsupported report format: %s", job.Format)
	}
}

func reportTitle(t models.ReportType) string {
	switch t {
	case models.ReportTypeDailyDiaryExport:
		return "Daily Diary Export"
	case models.ReportTypeNCRSummary:
		return "Non-Conformance Report Summary"
	case models.ReportTypeITPRegister:
		return "ITP Register"
	case models.ReportTypeLotSummary:
		return "Lot Summary"
	case models.ReportTypeProjectSummary:
		return "Project Summary"
	}
	return string(t)
}

// sortedParameterKeys keeps parameter output deterministic
func sortedParameterKeys(parameters map[string]interface{}) []string {
	keys := make([]string, 0, len(parameters))
	for k := range parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderPDF(job dispatch.ReportJob) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("{nb}")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 12, reportTitle(job.ReportType), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("2 Jan 2006 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Report %s", job.ReportID), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 8, "Parameters", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if len(job.Parameters) == 0 {
		pdf.CellFormat(0, 6, "None", "", 1, "L", false, 0, "")
	}
	for _, key := range sortedParameterKeys(job.Parameters) {
		pdf.CellFormat(0, 6, fmt.Sprintf("%s: %v", key, job.Parameters[key]), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCSV(job dispatch.ReportJob) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"report", reportTitle(job.ReportType)},
		{"report_id", job.ReportID},
		{"organization_id", job.OrganizationID},
		{"generated_at", time.Now().Format(time.RFC3339)},
	}
	for _, key := range sortedParameterKeys(job.Parameters) {
		records = append(records, []string{key, fmt.Sprintf("%v", job.Parameters[key])})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to render CSV: %w", err)
	}
	return buf.Bytes(), nil
}
