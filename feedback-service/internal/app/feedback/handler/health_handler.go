package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"feedbackhub/pkg/logger"
)

// HealthCheck - проверка одной зависимости
type HealthCheck func(ctx context.Context) error

// HealthCheckHandler - healthcheck воркера на net/http.
// Критичные проверки делают статус unhealthy, остальные только warning
type HealthCheckHandler struct {
	critical map[string]HealthCheck
	optional map[string]HealthCheck
	now      func() time.Time
}

func NewHealthCheckHandler(critical, optional map[string]HealthCheck) *HealthCheckHandler {
	return &HealthCheckHandler{
		critical: critical,
		optional: optional,
		now:      time.Now,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

func (h *HealthCheckHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.critical)+len(h.optional))
	overallStatus := "healthy"

	for name, check := range h.critical {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[name] = "healthy"
		}
	}

	for name, check := range h.optional {
		if err := check(ctx); err != nil {
			checks[name] = "warning: " + err.Error()
		} else {
			checks[name] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Checks:    checks,
		Timestamp: h.now(),
	}

	w.Header().Set("Content-Type", "application/json")

	if overallStatus != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("Failed to encode health response")
	}
}

// Readiness - готовность по критичным зависимостям
func (h *HealthCheckHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.critical))
	for name := range h.critical {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.critical[name](ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (h *HealthCheckHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}

func (h *HealthCheckHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/health/readiness", h.Readiness)
	mux.HandleFunc("/health/liveness", h.Liveness)
}
