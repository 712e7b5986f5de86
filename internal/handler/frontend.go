package handler

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"jobboard-edge/internal/config"
)

// RegisterFrontend sends every route the service does not own to the page
// renderer. Without frontend.base_url nothing is registered and unknown
// paths get echo's 404.
func RegisterFrontend(e *echo.Echo, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Frontend.BaseURL == "" {
		return nil
	}

	u, err := url.Parse(cfg.Frontend.BaseURL)
	if err != nil {
		return fmt.Errorf("parse frontend base_url: %w", err)
	}

	balancer := echomw.NewRoundRobinBalancer([]*echomw.ProxyTarget{{Name: "frontend", URL: u}})
	e.Any("/*", func(echo.Context) error { return echo.ErrNotFound }, echomw.ProxyWithConfig(echomw.ProxyConfig{
		Balancer: balancer,
	}))

	logger.Info("frontend pass-through enabled", "host", u.Host)
	return nil
}
