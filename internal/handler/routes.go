package handler

import (
	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/service"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, docs *DocumentHandler, state *StateHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	e.GET("/api/proxy", docs.Serve(service.ProfileDocument))
	e.GET("/api/pdf-proxy", docs.Serve(service.ProfilePDF))
	e.Match(proxyMethods, "/api/*", proxy.Handle)

	st := e.Group("/state")
	st.GET("/not-interested", state.ListNotInterested)
	st.GET("/not-interested/:id", state.ContainsNotInterested)
	st.PUT("/not-interested/:id", state.AddNotInterested)
	st.DELETE("/not-interested/:id", state.RemoveNotInterested)
	st.GET("/reference/:kind", state.Reference)
}
