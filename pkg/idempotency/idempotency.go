// Package idempotency replays the stored response of a request when a client
// retries it with the same Idempotency-Key header.
//
// A key moves through two states: pending while the first request is being
// served, then completed with the captured response. Server errors release
// the key so the client can retry.
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable is returned by stores that cannot reach their backend.
var ErrStoreUnavailable = errors.New("idempotency store unavailable")

// Response is a captured HTTP response.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// Outcome describes the result of a Reserve call.
type Outcome int

const (
	// Reserved means the caller owns the key and must Complete or Release it.
	Reserved Outcome = iota
	// InFlight means another request holding the key has not finished.
	InFlight
	// Completed means Reservation.Response holds the response to replay.
	Completed
	// Mismatch means the key was used for a different request.
	Mismatch
)

// Reservation is returned by Store.Reserve.
type Reservation struct {
	Outcome  Outcome
	Response *Response
}

// Store persists idempotency records.
type Store interface {
	// Reserve claims key for the request identified by fingerprint. pendingTTL
	// bounds how long an unfinished claim blocks retries.
	Reserve(ctx context.Context, key, fingerprint string, pendingTTL time.Duration) (Reservation, error)
	// Complete stores resp for key until ttl elapses.
	Complete(ctx context.Context, key, fingerprint string, resp Response, ttl time.Duration) error
	// Release forgets key.
	Release(ctx context.Context, key string) error
}

// Record is the serialized form stores keep per key.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	Pending     bool      `json:"pending"`
	Response    *Response `json:"response,omitempty"`
}

// Resolve maps an existing record to the reservation a new request sees.
func (r Record) Resolve(fingerprint string) Reservation {
	switch {
	case r.Fingerprint != fingerprint:
		return Reservation{Outcome: Mismatch}
	case r.Pending || r.Response == nil:
		return Reservation{Outcome: InFlight}
	default:
		return Reservation{Outcome: Completed, Response: r.Response}
	}
}
