package pdf

import (
	"encoding/base64"
	"fmt"

	"github.com/a3tai/pdf-form-editor/internal/pdf/acroform"
)

// Operations reported in Error.Op.
const (
	OpAnalyze  = "analyze"
	OpRename   = "rename"
	OpValidate = "validate"
)

// Service handles form field operations on base64 encoded PDF documents.
// It keeps no per-document state, so one Service serves concurrent requests.
type Service struct {
	maxFileSize int64
	editor      *acroform.Editor
	validator   *Validator
}

// NewService creates a new PDF form service
func NewService(maxFileSize int64, debugMode bool) *Service {
	editor := acroform.NewEditor(debugMode)

	return &Service{
		maxFileSize: maxFileSize,
		editor:      editor,
		validator:   NewValidator(maxFileSize, editor),
	}
}

// Analyze lists the top-level form fields of a document
func (s *Service) Analyze(req AnalyzeRequest) (*AnalyzeResult, error) {
	data, err := s.decode(OpAnalyze, req.PDF)
	if err != nil {
		return nil, err
	}

	fields, err := s.editor.ListFields(data)
	if err != nil {
		return nil, fromAcroForm(OpAnalyze, err)
	}

	return &AnalyzeResult{Fields: fields}, nil
}

// Rename renames the form fields named in req.Mappings and returns the
// re-encoded document
func (s *Service) Rename(req RenameRequest) (*RenameResult, error) {
	if req.PDF == "" || req.Mappings == nil {
		return nil, invalidRequest(OpRename, MsgMissingMappings)
	}

	data, err := s.decode(OpRename, req.PDF)
	if err != nil {
		return nil, err
	}

	out, count, err := s.editor.RenameFields(data, req.Mappings)
	if err != nil {
		return nil, fromAcroForm(OpRename, err)
	}

	return &RenameResult{
		Success:      true,
		RenamedCount: count,
		PDF:          base64.StdEncoding.EncodeToString(out),
	}, nil
}

// Validate reports whether a document can be opened as a PDF
func (s *Service) Validate(req ValidateRequest) (*ValidateResult, error) {
	data, err := s.decode(OpValidate, req.PDF)
	if err != nil {
		return nil, err
	}
	return s.validator.Validate(data), nil
}

// Health reports service liveness
func (s *Service) Health() *HealthResult {
	return &HealthResult{Status: "healthy"}
}

// GetMaxFileSize returns the maximum decoded document size
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// decode turns the base64 payload into document bytes. Padded standard
// encoding is expected; unpadded input is accepted as a fallback.
func (s *Service) decode(op, payload string) ([]byte, error) {
	if payload == "" {
		return nil, invalidRequest(op, MsgNoPDF)
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxFileSize+2 {
		return nil, newError(ErrorKindTooLarge, op,
			fmt.Errorf("document too large: max %d bytes", s.maxFileSize))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, rawErr := base64.RawStdEncoding.DecodeString(payload)
		if rawErr != nil {
			return nil, newError(ErrorKindDecode, op, err)
		}
		data = raw
	}

	if int64(len(data)) > s.maxFileSize {
		return nil, newError(ErrorKindTooLarge, op,
			fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), s.maxFileSize))
	}

	return data, nil
}
