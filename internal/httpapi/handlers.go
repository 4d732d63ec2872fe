package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/a3tai/pdf-form-editor/internal/pdf"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pdfService.Health())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pdf.AnalyzeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.pdfService.Analyze(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req pdf.RenameRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.pdfService.Rename(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.config.IsDebug() {
		log.Printf("Renamed %d field(s)", result.RenamedCount)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req pdf.ValidateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.pdfService.Validate(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeBody reads a JSON request body into v, writing the error response
// itself when that fails
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodySize())

	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, &pdf.Error{Kind: pdf.ErrorKindTooLarge, Op: r.URL.Path, Err: err})
			return false
		}
		s.writeError(w, r, &pdf.Error{Kind: pdf.ErrorKindDecode, Op: r.URL.Path, Err: err})
		return false
	}

	return true
}

// writeError converts a service failure into an {"error": message} response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError || s.config.IsDebug() {
		log.Printf("%s %s failed (%s): %v", r.Method, r.URL.Path, pdf.KindOf(err), err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps the service error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch pdf.KindOf(err) {
	case pdf.ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case pdf.ErrorKindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
