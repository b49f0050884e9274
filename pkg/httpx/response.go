package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v as JSON with the given status code. Content-Type and
// X-Content-Type-Options headers are set automatically. Encoding errors are
// silently discarded; use this for handler responses, not for streaming.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes a standard {"error": message} JSON response.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// JSONErrorCode writes {"error": message, "code": code}. code is a stable
// machine-readable identifier clients can branch on.
func JSONErrorCode(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// SafeError returns the error message for client responses.
// In production (isProduction=true), internal server errors (5xx) are replaced
// with a generic message to avoid leaking implementation details.
func SafeError(err error, status int, isProduction bool) string {
	if isProduction && status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
