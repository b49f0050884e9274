// Package errhttp maps circulation error kinds to HTTP status codes and
// stable error codes. Add a case to classify for each new error kind.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/services/circulation/domain"
)

// Machine-readable codes carried in ErrorResponse.Code.
const (
	CodeInvalidInput      = "invalid_input"
	CodeNotFound          = "not_found"
	CodeCapacityExhausted = "capacity_exhausted"
	CodeCapacityConflict  = "capacity_conflict"
	CodeConflict          = "conflict"
	CodeStorageError      = "storage_error"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Unrecognized errors become 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	status, code := Classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "internal storage error"
	}
	httpx.JSONErrorCode(w, status, code, msg)
}

// Classify returns the status and code WriteError would use for err.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrCapacityExhausted):
		return http.StatusConflict, CodeCapacityExhausted
	case errors.Is(err, domain.ErrCapacityConflict):
		return http.StatusConflict, CodeCapacityConflict
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeStorageError
	}
}
