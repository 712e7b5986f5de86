package handler

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/model"
	"jobboard-edge/internal/service"
	"jobboard-edge/internal/store"
)

// referenceKindPattern bounds reference kinds to a single safe path segment.
var referenceKindPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// StateHandler exposes the in-process state stores.
type StateHandler struct {
	notInterested *store.Set
	reference     *store.Reference
	proxy         *service.ProxyService
	logger        *slog.Logger
}

// NewStateHandler creates a StateHandler.
func NewStateHandler(notInterested *store.Set, reference *store.Reference, proxy *service.ProxyService, logger *slog.Logger) *StateHandler {
	return &StateHandler{
		notInterested: notInterested,
		reference:     reference,
		proxy:         proxy,
		logger:        logger.With("component", "state_handler"),
	}
}

// ListNotInterested returns every job id marked as not interested.
func (h *StateHandler) ListNotInterested(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"ids": h.notInterested.List(),
	})
}

// ContainsNotInterested reports whether a job id is marked.
func (h *StateHandler) ContainsNotInterested(c echo.Context) error {
	id := c.Param("id")
	return c.JSON(http.StatusOK, map[string]any{
		"id":       id,
		"contains": h.notInterested.Contains(id),
	})
}

// AddNotInterested marks a job id.
func (h *StateHandler) AddNotInterested(c echo.Context) error {
	h.notInterested.Add(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// RemoveNotInterested unmarks a job id.
func (h *StateHandler) RemoveNotInterested(c echo.Context) error {
	h.notInterested.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// Reference serves a cached reference document, loading it from the backend
// at /reference/<kind> on first use.
func (h *StateHandler) Reference(c echo.Context) error {
	kind := c.Param("kind")
	if !referenceKindPattern.MatchString(kind) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid reference kind"})
	}

	if doc, ok := h.reference.Get(kind); ok {
		return c.JSONBlob(http.StatusOK, doc)
	}

	resp, err := h.proxy.Forward(&model.ProxyRequest{
		Ctx:      c.Request().Context(),
		Method:   http.MethodGet,
		Segments: []string{"reference", kind},
		Header:   http.Header{"Accept": {"application/json"}},
	})
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "reference data not found"})
	}
	if err != nil {
		h.logger.Error("reference load failed", "err", err, "class", classify(err), "kind", kind)
		return c.JSON(http.StatusInternalServerError, internalServerError)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Error("reference load failed", "status", resp.StatusCode, "kind", kind)
		return c.JSON(http.StatusInternalServerError, internalServerError)
	}

	h.reference.Set(kind, resp.Body)
	h.logger.Info("reference data cached", "kind", kind, "bytes", len(resp.Body))
	return c.JSONBlob(http.StatusOK, resp.Body)
}
