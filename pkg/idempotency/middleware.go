package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/logger"
)

// Error codes written by Middleware.
const (
	CodeKeyReused   = "idempotency_key_reused"
	CodeInFlight    = "idempotency_in_flight"
	CodeUnavailable = "idempotency_unavailable"
	CodeInvalidKey  = "invalid_input"
)

// MaxKeyLength bounds the Idempotency-Key header.
const MaxKeyLength = 255

// Options configures Middleware.
type Options struct {
	// TTL is how long completed responses are replayed. Zero means 24h.
	TTL time.Duration
	// PendingTTL bounds a claim whose request never finished. Zero means 1m.
	PendingTTL time.Duration
	Logger     logger.Logger
}

// Middleware deduplicates requests carrying an Idempotency-Key header.
// Requests without the header pass through untouched.
func Middleware(store Store, opts Options) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	log := opts.Logger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(httpx.HeaderIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > MaxKeyLength {
				httpx.JSONErrorCode(w, http.StatusBadRequest, CodeInvalidKey, "Idempotency-Key is too long")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					httpx.JSONErrorCode(w, http.StatusRequestEntityTooLarge, CodeInvalidKey, "Request body too large")
					return
				}
				httpx.JSONErrorCode(w, http.StatusBadRequest, CodeInvalidKey, "Unable to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fp := Fingerprint(r.Method, r.URL.Path, body)
			res, err := store.Reserve(r.Context(), key, fp, opts.PendingTTL)
			if err != nil {
				log.ErrorContext(r.Context(), "idempotency reserve failed", "error", err)
				httpx.JSONErrorCode(w, http.StatusServiceUnavailable, CodeUnavailable, ErrStoreUnavailable.Error())
				return
			}

			switch res.Outcome {
			case Mismatch:
				httpx.JSONErrorCode(w, http.StatusUnprocessableEntity, CodeKeyReused,
					"Idempotency-Key was already used for a different request")
				return
			case InFlight:
				httpx.JSONErrorCode(w, http.StatusConflict, CodeInFlight,
					"A request with this Idempotency-Key is still being processed")
				return
			case Completed:
				replay(w, res.Response)
				return
			}

			// The client may already be gone; the outcome still has to be stored.
			ctx := context.WithoutCancel(r.Context())
			release := func() {
				if err := store.Release(ctx, key); err != nil {
					log.WarnContext(ctx, "idempotency release failed", "error", err)
				}
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			func() {
				defer func() {
					if p := recover(); p != nil {
						release()
						panic(p)
					}
				}()
				next.ServeHTTP(rec, r)
			}()

			if rec.status >= http.StatusInternalServerError {
				release()
				return
			}
			resp := Response{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := store.Complete(ctx, key, fp, resp, opts.TTL); err != nil {
				log.WarnContext(ctx, "idempotency complete failed", "error", err)
			}
		})
	}
}

// Fingerprint identifies a request by method, path and body.
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func replay(w http.ResponseWriter, resp *Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set(httpx.HeaderIdempotentReplayed, "true")
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// recorder tees the response into a buffer.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
