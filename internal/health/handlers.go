// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-quote/internal/common"
)

const defaultTimeout = 300 * time.Millisecond

var accepting atomic.Bool

func init() { accepting.Store(true) }

// SetReady toggles whether readiness may report ok. It is cleared on shutdown
// so load balancers drain the instance.
func SetReady(ready bool) { accepting.Store(ready) }

// Probe checks one dependency.
type Probe struct {
	Name    string
	Check   func(ctx context.Context) error
	Timeout time.Duration
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and reports 503 if any failed or the server is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.Probes)+1)
	healthy := accepting.Load()
	if !healthy {
		status["server"] = "shutting down"
	}
	for _, p := range h.Probes {
		if p.Check == nil {
			continue
		}
		if err := run(r.Context(), p); err != nil {
			status[p.Name] = err.Error()
			healthy = false
			continue
		}
		status[p.Name] = "ok"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func run(ctx context.Context, p Probe) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Check(ctx)
}
