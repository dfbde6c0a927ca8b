package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// per-dependency probe budget
const checkTimeout = 2 * time.Second

// HealthChecker is one readiness dependency (database, image store).
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a ping function (e.g. the image store's Ping).
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// DatabaseHealthChecker pings the scan database.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

type readiness struct {
	Status    string                `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Checks    map[string]probeState `json:"checks"`
}

type probeState struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// HealthHandler probes every dependency concurrently; any failure answers 503.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := readiness{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Checks:    make(map[string]probeState, len(checkers)),
		}

		var (
			mu sync.Mutex
			g  errgroup.Group
		)
		for name, checker := range checkers {
			name, checker := name, checker
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
				defer cancel()

				start := time.Now()
				err := checker.Check(ctx)
				st := probeState{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					st.Status = "unhealthy"
					st.Message = err.Error()
				}

				mu.Lock()
				out.Checks[name] = st
				if err != nil {
					out.Status = "unhealthy"
				}
				mu.Unlock()
				// a failed probe must not cancel the others
				return nil
			})
		}
		_ = g.Wait()

		code := http.StatusOK
		if out.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	}
}

// LivenessHandler answers as long as the process can serve HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
