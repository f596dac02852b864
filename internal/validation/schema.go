package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// createReportSchema validates the envelope of a report creation request.
// The parameters payload is deliberately unconstrained beyond "object": it
// is passed to the worker verbatim, never interpreted here.
const createReportSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["organizationId", "reportType", "format"],
	"properties": {
		"organizationId": {"type": "string", "minLength": 1},
		"reportType": {
			"type": "string",
			"enum": ["daily_diary_export", "ncr_summary", "itp_register", "lot_summary", "project_summary"]
		},
		"format": {
			"type": "string",
			"enum": ["pdf", "excel", "csv"]
		},
		"parameters": {"type": "object"},
		"maxRetries": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}`

// RequestValidator validates inbound report creation requests
type RequestValidator struct {
	schema *gojsonschema.Schema
}

// NewRequestValidator compiles the request schema once
func NewRequestValidator() (*RequestValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(createReportSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}
	return &RequestValidator{schema: schema}, nil
}

// ValidateCreateRequest validates the raw JSON body of a creation request
func (v *RequestValidator) ValidateCreateRequest(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("invalid request: %v", details)
	}
	return nil
}
