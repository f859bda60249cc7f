// Package handlers holds the plain HTTP endpoints served next to MCP.
package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/logging"
)

// readyTimeout bounds the datasource check behind /readyz.
const readyTimeout = 5 * time.Second

// PingResponse contains service status and version information.
type PingResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Service    string `json:"service"`
	GoVersion  string `json:"go_version"`
	Hostname   string `json:"hostname"`
	Datasource string `json:"datasource"`
}

// ReadinessCheck reports whether the datasource can be reached.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler handles liveness, readiness and ping endpoints.
type HealthHandler struct {
	version        string
	datasourceType string
	ready          ReadinessCheck
	logger         *zap.Logger
}

// NewHealthHandler creates a HealthHandler. A nil ready check always passes.
func NewHealthHandler(version, datasourceType string, ready ReadinessCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		version:        version,
		datasourceType: datasourceType,
		ready:          ready,
		logger:         logger.Named("health"),
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /healthz. It never touches the datasource.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready handles GET /readyz.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("error", logging.SanitizeError(err)))
			body := ErrorBody{
				Error:      "datasource_unavailable",
				Message:    "datasource is not reachable",
				Datasource: h.datasourceType,
			}
			if err := WriteError(w, http.StatusServiceUnavailable, body); err != nil {
				h.logger.Error("Failed to encode readiness response", zap.Error(err))
			}
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Ping handles GET /ping with service and build information.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:     "ok",
		Version:    h.version,
		Service:    "ekaya-validator",
		GoVersion:  runtime.Version(),
		Hostname:   hostname,
		Datasource: h.datasourceType,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
