package httpx

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (Database, RedisClient and EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks names the dependencies probed by the health endpoint. Only
// configured dependencies are registered, so a memory-backed node reports
// just what it actually runs on.
type HealthChecks map[string]HealthChecker

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler returns an http.HandlerFunc that probes all registered
// HealthCheckers concurrently and reports degraded status if any of them fail.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name, c := range checks {
		if c != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make([]string, len(names))
		var g errgroup.Group
		for i, name := range names {
			c := checks[name]
			g.Go(func() error {
				results[i] = "ok"
				if err := c.Ping(ctx); err != nil {
					results[i] = "unreachable"
				}
				return nil
			})
		}
		_ = g.Wait()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		for i, name := range names {
			resp.Checks[name] = results[i]
			if results[i] != "ok" {
				resp.Status = "degraded"
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
