// Package service implements the backend forwarding and document fetching logic.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"jobboard-edge/internal/client"
	"jobboard-edge/internal/config"
	"jobboard-edge/internal/model"
)

var (
	// ErrNotConfigured is returned when no backend base URL is configured.
	ErrNotConfigured = errors.New("backend base URL is not configured (set backend.base_url or NEXT_PUBLIC_API_URL)")

	// ErrInvalidJSON is returned when the backend response body is not JSON.
	ErrInvalidJSON = errors.New("backend response is not valid JSON")
)

// ProxyService forwards API calls to the backend and validates the JSON reply.
type ProxyService struct {
	client  *client.Client
	logger  *slog.Logger
	baseURL string // without trailing slash; empty when unconfigured
}

// NewProxyService creates a ProxyService. A missing backend URL is not an
// error here; Forward reports ErrNotConfigured for every call instead.
func NewProxyService(c *client.Client, cfg *config.Config, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		client:  c.Named("backend"),
		logger:  logger.With("component", "proxy_service"),
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
	}
}

// Configured reports whether a backend base URL is set.
func (s *ProxyService) Configured() bool {
	return s.baseURL != ""
}

// Forward sends a ProxyRequest to the backend and returns the buffered response.
// The body must be valid JSON; the status code is passed through unchanged.
// On ErrInvalidJSON the response is returned as well so callers can inspect
// the backend status.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	upstreamURL, err := s.buildUpstreamURL(pr.Segments, pr.Query, pr.RawQuery)
	if err != nil {
		return nil, err
	}

	var body []byte
	if pr.Method != http.MethodGet && pr.Method != http.MethodHead {
		body = pr.Body
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", JoinSegments(pr.Segments),
	)

	resp, err := s.client.Send(pr.Ctx, pr.Method, upstreamURL, prepareRequestHeaders(pr.Header), body)
	if err != nil {
		return nil, fmt.Errorf("forward to backend: %w", err)
	}

	if !json.Valid(resp.Body) {
		return resp, fmt.Errorf("%w (status %d, %d bytes)", ErrInvalidJSON, resp.StatusCode, len(resp.Body))
	}
	return resp, nil
}

// JoinSegments joins captured path segments with "/" without reordering or
// altering any segment.
func JoinSegments(segments []string) string {
	return strings.Join(segments, "/")
}

// SplitPath splits a catch-all path remainder into its segments.
func SplitPath(rest string) []string {
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// buildUpstreamURL joins the segments onto the base URL. A non-empty rawQuery
// is appended as is; otherwise query is re-encoded.
func (s *ProxyService) buildUpstreamURL(segments []string, query url.Values, rawQuery string) (string, error) {
	raw := s.baseURL + "/" + JoinSegments(segments)
	switch {
	case rawQuery != "":
		raw += "?" + rawQuery
	case len(query) > 0:
		raw += "?" + query.Encode()
	}

	if _, err := url.Parse(raw); err != nil {
		return "", fmt.Errorf("build backend URL: %w", err)
	}
	return raw, nil
}

// prepareRequestHeaders copies the inbound headers and forces a JSON content
// type. Accept-Encoding is left to the transport so compressed replies are
// decoded before JSON validation.
func prepareRequestHeaders(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	dst.Del("Accept-Encoding")
	dst.Set("Content-Type", "application/json")
	return dst
}
