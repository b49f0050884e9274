package services

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ghuser/circulationledger/services/circulation/domain"
)

// outcome labels a result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCapacityExhausted):
		return "capacity_exhausted"
	case errors.Is(err, domain.ErrCapacityConflict):
		return "capacity_conflict"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "storage_error"
	}
}

func outcomeAttr(err error) attribute.KeyValue {
	return attribute.String("outcome", outcome(err))
}
