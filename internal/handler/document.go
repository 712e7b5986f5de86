package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/service"
)

// DocumentHandler relays remote documents through the service origin.
type DocumentHandler struct {
	service *service.DocumentService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(svc *service.DocumentService, m *metrics.Metrics, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		metrics: m,
		logger:  logger.With("component", "document_handler"),
	}
}

// Serve returns a handler fetching the document named by the url query
// parameter and labeling it according to p.
func (h *DocumentHandler) Serve(p service.Profile) echo.HandlerFunc {
	cacheControl := fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", h.service.RevalidateSeconds())

	return func(c echo.Context) error {
		doc, err := h.service.Fetch(c.Request().Context(), c.QueryParam("url"), p)
		if err != nil {
			return h.fail(c, p, err)
		}

		header := c.Response().Header()
		header.Set(echo.HeaderContentLength, strconv.FormatInt(doc.ContentLength, 10))
		header.Set("Cache-Control", cacheControl)
		header.Set(echo.HeaderAccessControlAllowOrigin, "*")

		h.metrics.DocumentServed(p.Name, doc.ContentLength)
		return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
	}
}

func (h *DocumentHandler) fail(c echo.Context, p service.Profile, err error) error {
	if errors.Is(err, service.ErrMissingURL) {
		return c.String(http.StatusBadRequest, "Missing URL parameter")
	}

	h.logger.Error("document proxy error",
		"err", err,
		"class", classify(err),
		"profile", p.Name,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, service.ErrHostNotAllowed) {
		return c.String(http.StatusForbidden, "Document host not allowed")
	}
	return c.String(http.StatusInternalServerError, "Failed to fetch document")
}
