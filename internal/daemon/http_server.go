package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/presencewatch/internal/metrics"
	"git.home.luguber.info/inful/presencewatch/internal/version"
)

// HealthStatus is the overall state reported by /healthz.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    HealthStatus   `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Uptime    string         `json:"uptime"`
	Version   string         `json:"version"`
	Runs      StatusSnapshot `json:"runs"`
}

// Handler returns the daemon's HTTP routes.
func Handler(status *Status, reg *prom.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		snap := status.Snapshot()
		resp := HealthResponse{
			Status:    HealthStatusHealthy,
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(snap.Started).Truncate(time.Second).String(),
			Version:   version.Version,
			Runs:      snap,
		}
		code := http.StatusOK
		if !status.Healthy() {
			resp.Status = HealthStatusDegraded
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}
