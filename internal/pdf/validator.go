package pdf

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/pdf-form-editor/internal/pdf/acroform"
)

// headerWindow bounds how far into the file the %PDF- header may start
const headerWindow = 1024

var headerPattern = regexp.MustCompile(`%PDF-(\d\.\d)`)

// FieldLister lists the form fields of a document
type FieldLister interface {
	ListFields(data []byte) ([]acroform.Field, error)
}

// Validator handles PDF document validation
type Validator struct {
	maxFileSize int64
	editor      FieldLister
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64, editor FieldLister) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		editor:      editor,
	}
}

// Validate checks that data opens as a PDF and reports its page count and
// form field count. An unreadable document, or one whose form cannot be
// read, is reported as invalid in the result, not as an error.
func (v *Validator) Validate(data []byte) *ValidateResult {
	result := &ValidateResult{
		Size: int64(len(data)),
	}

	pages, err := v.validatePDFData(data)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Pages = pages
	result.Version, _ = pdfVersion(data)

	fields, err := v.editor.ListFields(data)
	if err != nil {
		result.Message = fmt.Sprintf("form fields unreadable: %v", err)
		return result
	}
	result.Valid = true
	result.HasForm = len(fields) > 0
	result.FieldCount = len(fields)

	return result
}

// validatePDFData performs structural validation and returns the page count
func (v *Validator) validatePDFData(data []byte) (pages int, err error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("document is empty")
	}

	if int64(len(data)) > v.maxFileSize {
		return 0, fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}

	if _, ok := pdfVersion(data); !ok {
		return 0, fmt.Errorf("missing PDF header")
	}

	// ledongthuc/pdf panics on some malformed cross-reference data
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("invalid PDF file: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}

	return r.NumPage(), nil
}

// pdfVersion returns the version of the first %PDF- header found within
// the leading headerWindow bytes.
func pdfVersion(data []byte) (string, bool) {
	if len(data) > headerWindow {
		data = data[:headerWindow]
	}
	m := headerPattern.FindSubmatch(data)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// IsValidPDF performs a quick check to see if data is a readable PDF
func (v *Validator) IsValidPDF(data []byte) bool {
	_, err := v.validatePDFData(data)
	return err == nil
}
