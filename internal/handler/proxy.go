package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/model"
	"jobboard-edge/internal/service"
)

// apiPrefix is the mount point of the catch-all backend proxy.
const apiPrefix = "/api/"

// proxyMethods are the methods accepted by the catch-all backend proxy.
var proxyMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// internalServerError is the only error body the JSON proxy ever returns.
var internalServerError = map[string]string{"error": "Internal Server Error"}

// ProxyHandler forwards /api/* calls to the backend API.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle reads the whole request, forwards it and relays the backend JSON
// with the backend status code. Every failure becomes a generic 500.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return h.fail(c, fmt.Errorf("read request body: %w", err))
	}

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Segments: segments(req.URL),
		Header:   req.Header,
		Body:     body,
	}

	// ParseQuery drops pairs with a literal ';' or a bad escape.
	query, err := url.ParseQuery(req.URL.RawQuery)
	if err != nil {
		h.logger.Debug("forwarding query verbatim", "err", err, "path", req.URL.Path)
		pr.RawQuery = req.URL.RawQuery
	} else {
		pr.Query = query
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSONBlob(resp.StatusCode, resp.Body)
}

func (h *ProxyHandler) fail(c echo.Context, err error) error {
	h.logger.Error("proxy error",
		"err", err,
		"class", classify(err),
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
	)
	return c.JSON(http.StatusInternalServerError, internalServerError)
}

// segments returns the escaped path segments after the /api/ prefix.
func segments(u *url.URL) []string {
	return service.SplitPath(strings.TrimPrefix(u.EscapedPath(), apiPrefix))
}
