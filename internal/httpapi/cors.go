package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/a3tai/pdf-form-editor/internal/config"
)

const (
	allowedMethods = "GET, POST, OPTIONS"
	allowedHeaders = "Content-Type"
)

// corsPolicy decides which origins may call the API from a browser
type corsPolicy struct {
	anyOrigin bool
	origins   []string
	preflight map[string]bool // paths answered on OPTIONS
}

func newCORSPolicy(origins []string, preflightPaths ...string) *corsPolicy {
	p := &corsPolicy{preflight: make(map[string]bool, len(preflightPaths))}
	for _, path := range preflightPaths {
		p.preflight[path] = true
	}
	for _, o := range origins {
		if o == config.AnyOrigin {
			p.anyOrigin = true
			continue
		}
		p.origins = append(p.origins, strings.TrimSuffix(o, "/"))
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" if the origin is not allowed
func (p *corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin {
		return config.AnyOrigin
	}
	if origin == "" {
		return ""
	}
	for _, pattern := range p.origins {
		if matchOrigin(pattern, origin) {
			return origin
		}
	}
	return ""
}

// middleware adds CORS headers to every response and answers preflight
// requests for the API paths without reaching the handlers. OPTIONS on any
// other path falls through to the mux.
func (p *corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if !p.anyOrigin {
			h.Add("Vary", "Origin")
		}

		if allow := p.allowOrigin(r.Header.Get("Origin")); allow != "" {
			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Allow-Methods", allowedMethods)
			h.Set("Access-Control-Allow-Headers", allowedHeaders)
		}

		if r.Method == http.MethodOptions && p.preflight[r.URL.Path] {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// matchOrigin matches origin against pattern, where each '*' in pattern
// stands for any run of characters
func matchOrigin(pattern, origin string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == origin
	}

	if !strings.HasPrefix(origin, parts[0]) {
		return false
	}
	rest := origin[len(parts[0]):]

	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
	}

	return strings.HasSuffix(rest, parts[len(parts)-1])
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs method, path, status and duration of each request
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
