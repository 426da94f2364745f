package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tweetflow/pkg/logger"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	logger  logger.Logger
}

type HealthResponse struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Services  map[string]map[string]string `json:"services"`
	Version   string                       `json:"version"`
}

const Version = "1.0.0"

func NewHealthHandler(checks map[string]HealthCheck, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	services, healthy := h.run(r.Context())

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   Version,
	})
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	services, healthy := h.run(r.Context())

	response := map[string]interface{}{
		"timestamp": time.Now().UTC(),
	}
	if healthy {
		response["status"] = "ready"
		writeJSON(w, http.StatusOK, response)
		return
	}

	issues := make([]string, 0)
	for name, s := range services {
		if s["status"] != "healthy" {
			issues = append(issues, name+": "+s["error"])
		}
	}
	response["status"] = "not_ready"
	response["issues"] = issues
	writeJSON(w, http.StatusServiceUnavailable, response)
}

func (h *HealthHandler) run(ctx context.Context) (map[string]map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	services := make(map[string]map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			services[name] = map[string]string{"status": "unhealthy", "error": err.Error()}
			h.logger.WarnContext(ctx, "Sağlık kontrolü başarısız", map[string]interface{}{
				"service": name,
				"error":   err.Error(),
			})
			continue
		}
		services[name] = map[string]string{"status": "healthy"}
	}
	return services, healthy
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
	mux.HandleFunc("GET /health/ready", h.ReadinessCheck)
}
