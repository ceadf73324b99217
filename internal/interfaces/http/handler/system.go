package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const healthProbeTimeout = 3 * time.Second

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe names one dependency of the health check
type HealthProbe struct {
	Name   string
	Pinger Pinger
}

// SystemHandler handles health and system info endpoints
type SystemHandler struct {
	BaseHandler
	version   string
	probes    []HealthProbe
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler probing the given dependencies
func NewSystemHandler(version string, probes ...HealthProbe) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		version:   version,
		probes:    probes,
		startTime: time.Now(),
	}
}

// HealthResponse reports the state of each dependency
type HealthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks"`
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Uptime    string `json:"uptime"`
}

// Health handles GET /health
// Probes the blob store and the cart store
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	resp := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]string, len(h.probes)),
	}
	status := http.StatusOK
	for _, probe := range h.probes {
		if err := probe.Pinger.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("dependency", probe.Name), zap.Error(err))
			resp.Checks[probe.Name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[probe.Name] = "ok"
	}
	resp.Time = time.Now().UTC().Format(time.RFC3339)
	c.JSON(status, resp)
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "Storefront API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
