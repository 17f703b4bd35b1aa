package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/gamehub-console/internal/api/response"
)

// Pinger is a dependency the console needs before serving traffic
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	checks  map[string]Pinger
	order   []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. Checks run in the given order.
func NewHealthHandler(logger *slog.Logger, timeout time.Duration, checks ...NamedCheck) *HealthHandler {
	h := &HealthHandler{
		checks:  make(map[string]Pinger, len(checks)),
		timeout: timeout,
		logger:  logger,
	}
	for _, c := range checks {
		h.checks[c.Name] = c.Pinger
		h.order = append(h.order, c.Name)
	}
	return h
}

// NamedCheck pairs a readiness check with its reported name
type NamedCheck struct {
	Name   string
	Pinger Pinger
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Ready handles GET /api/v1/ready. Any failed check answers 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := response.Ready{Status: "ok", Checks: make([]response.Check, 0, len(h.order))}
	status := http.StatusOK

	for _, name := range h.order {
		check := response.Check{Name: name, OK: true}
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			check.OK = false
			check.Detail = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		resp.Checks = append(resp.Checks, check)
	}

	response.JSON(w, status, resp)
}
