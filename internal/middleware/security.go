package middleware

import (
	"github.com/labstack/echo/v4"
)

// hopByHopHeaders must not travel past the edge in either direction.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// securityHeaders are set on every response unless a handler already set them.
var securityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-Frame-Options":        "SAMEORIGIN", // the site embeds proxied PDFs
	"Referrer-Policy":        "strict-origin-when-cross-origin",
}

// SecurityHeaders strips hop-by-hop request headers before any handler or
// proxy sees them and adds baseline security headers to the response just
// before it is committed.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, h := range hopByHopHeaders {
				c.Request().Header.Del(h)
			}

			res := c.Response()
			res.Before(func() {
				for k, v := range securityHeaders {
					if res.Header().Get(k) == "" {
						res.Header().Set(k, v)
					}
				}
			})

			return next(c)
		}
	}
}
