package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreateRequest(t *testing.T) {
	validator, err := NewRequestValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "valid request",
			body: `{"organizationId": "org-a", "reportType": "ncr_summary", "format": "pdf",
				"parameters": {"projectId": "p1", "nested": {"depth": 2}}}`,
			wantErr: false,
		},
		{
			name:    "parameters optional",
			body:    `{"organizationId": "org-a", "reportType": "lot_summary", "format": "csv"}`,
			wantErr: false,
		},
		{
			name:    "missing organizationId",
			body:    `{"reportType": "ncr_summary", "format": "pdf"}`,
			wantErr: true,
		},
		{
			name:    "unknown report type",
			body:    `{"organizationId": "org-a", "reportType": "payroll", "format": "pdf"}`,
			wantErr: true,
		},
		{
			name:    "unknown format",
			body:    `{"organizationId": "org-a", "reportType": "ncr_summary", "format": "docx"}`,
			wantErr: true,
		},
		{
			name:    "unexpected field rejected",
			body:    `{"organizationId": "org-a", "reportType": "ncr_summary", "format": "pdf", "priority": 9}`,
			wantErr: true,
		},
		{
			name:    "negative maxRetries rejected",
			body:    `{"organizationId": "org-a", "reportType": "ncr_summary", "format": "pdf", "maxRetries": -1}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `queue me a report please`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateCreateRequest([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
