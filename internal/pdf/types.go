package pdf

import "github.com/a3tai/pdf-form-editor/internal/pdf/acroform"

// Request Types

// AnalyzeRequest represents a request to list the form fields of a PDF
type AnalyzeRequest struct {
	PDF string `json:"pdf"` // base64 encoded document
}

// RenameRequest represents a request to rename form fields in bulk
type RenameRequest struct {
	PDF      string            `json:"pdf"`
	Mappings map[string]string `json:"mappings"` // current name -> new name
}

// ValidateRequest represents a request to check that a document opens as a PDF
type ValidateRequest struct {
	PDF string `json:"pdf"`
}

// Response Types

// AnalyzeResult represents the result of a field listing
type AnalyzeResult struct {
	Fields []acroform.Field `json:"fields"`
}

// RenameResult represents the result of a bulk rename
type RenameResult struct {
	Success      bool   `json:"success"`
	RenamedCount int    `json:"renamed_count"`
	PDF          string `json:"pdf"` // base64 encoded document
}

// ValidateResult represents the result of a document validation
type ValidateResult struct {
	Valid      bool   `json:"valid"`
	Message    string `json:"message,omitempty"`
	Size       int64  `json:"size"`
	Version    string `json:"version,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	HasForm    bool   `json:"has_form"`
	FieldCount int    `json:"field_count"`
}

// HealthResult is the body of a health check
type HealthResult struct {
	Status string `json:"status"`
}
