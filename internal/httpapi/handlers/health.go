package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/httpkit"
)

// Health reports liveness. With ?deep=true it also checks the generation
// server and the optional ledger and lock stores.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": h.serviceName,
	}
	if h.progress != nil {
		snap := h.progress.Snapshot()
		health["run_id"] = snap.RunID
		health["run_state"] = snap.State
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, check := range checks {
			if check["status"] == "error" {
				health["status"] = "degraded"
				log.Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	checks := make(map[string]map[string]any)

	checks["comfyui"] = h.check(ctx, h.comfy)
	checks["postgres"] = h.check(ctx, h.ledger)

	var redisPinger Pinger
	if h.rdb != nil {
		redisPinger = pingFunc(func(ctx context.Context) error {
			return h.rdb.Ping(ctx).Err()
		})
	}
	checks["redis"] = h.check(ctx, redisPinger)

	return checks
}

func (h *Handler) check(ctx context.Context, p Pinger) map[string]any {
	if p == nil {
		return map[string]any{"status": "disabled"}
	}

	start := time.Now()
	result := map[string]any{
		"status": "ok",
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.Ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
