package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/guard"
	"jobboard-edge/internal/metrics"
)

// RouteGuard returns an Echo middleware that redirects bare role root paths
// to the role's default page and passes every other request through.
// Register it with Echo.Pre so it runs before routing.
func RouteGuard(g *guard.Guard, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := g.Decide(c.Request().URL.Path)
			if !d.Redirect {
				return next(c)
			}
			m.GuardRedirect(string(d.Role))
			return c.Redirect(http.StatusTemporaryRedirect, d.Target)
		}
	}
}
