package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/config"
	"jobboard-edge/internal/store"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg           *config.Config
	version       Version
	started       time.Time
	notInterested *store.Set
	reference     *store.Reference
}

type statusResponse struct {
	Status             string   `json:"status"`
	Version            string   `json:"version"`
	UptimeSeconds      int64    `json:"uptime_seconds"`
	BackendConfigured  bool     `json:"backend_configured"`
	FrontendConfigured bool     `json:"frontend_configured"`
	NotInterested      int      `json:"not_interested"`
	ReferenceKinds     []string `json:"reference_kinds"`
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version, notInterested *store.Set, reference *store.Reference) *HealthHandler {
	return &HealthHandler{
		cfg:           cfg,
		version:       v,
		started:       time.Now(),
		notInterested: notInterested,
		reference:     reference,
	}
}

// Healthz is the liveness probe.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports what is configured and what the state stores hold.
// Upstream addresses are not disclosed.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:             "ok",
		Version:            string(h.version),
		UptimeSeconds:      int64(time.Since(h.started).Seconds()),
		BackendConfigured:  h.cfg.Backend.BaseURL != "",
		FrontendConfigured: h.cfg.Frontend.BaseURL != "",
		NotInterested:      h.notInterested.Len(),
		ReferenceKinds:     h.reference.Kinds(),
	})
}
