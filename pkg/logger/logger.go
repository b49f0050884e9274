package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/circulationledger/pkg/config"
)

// Logger is the project-wide logging interface. Implementations must provide
// context-aware and plain logging methods plus With for structured attributes.
// The concrete slogLogger embeds *slog.Logger so all standard slog features
// (Log, LogAttrs, Enabled, Handler, etc.) are available on the concrete type.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	// With returns a new Logger with the given key-value pairs bound as attributes.
	With(args ...any) Logger
	// ToSlog returns the underlying *slog.Logger for third-party libraries.
	ToSlog() *slog.Logger
}

// New returns a Logger backed by a trace-aware JSON slog handler writing to stdout.
// trace_id, span_id, and request_id are injected from context automatically.
func New(cfg *config.Config) Logger {
	return NewWithWriter(os.Stdout, cfg.LogLevel).With("service", cfg.ServiceName)
}

// NewWithWriter is New with an explicit destination and level name.
func NewWithWriter(w io.Writer, level string) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	sl := slog.New(&traceHandler{slog.NewJSONHandler(w, opts)})
	return &slogLogger{Logger: sl}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewWithWriter(io.Discard, "error")
}

type slogLogger struct {
	*slog.Logger
}

// With returns a new Logger with the given key-value pairs bound as attributes.
func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{Logger: l.Logger.With(args...)}
}

// ToSlog returns the underlying *slog.Logger for third-party libraries.
func (l *slogLogger) ToSlog() *slog.Logger {
	return l.Logger
}

// traceHandler wraps a slog.Handler and injects OTel trace_id, span_id,
// and chi request_id from context into every log record automatically.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{h.Handler.WithGroup(name)}
}

// Middleware returns a chi-compatible middleware that logs each request.
// Server errors are logged at error level, client errors at warn.
func Middleware(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"bytes", ww.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					args = append(args, "route", pattern)
				}
			}

			switch {
			case ww.status >= http.StatusInternalServerError:
				log.ErrorContext(r.Context(), "request", args...)
			case ww.status >= http.StatusBadRequest:
				log.WarnContext(r.Context(), "request", args...)
			default:
				log.InfoContext(r.Context(), "request", args...)
			}
		})
	}
}

// Recovery returns a chi-compatible middleware that recovers from panics and logs them.
func Recovery(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.ErrorContext(r.Context(), "panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	if !rw.wroteHeader {
		rw.status = status
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
