package service

import (
	"context"
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
	// ErrMissingURL is returned when the url query parameter is absent.
	ErrMissingURL = errors.New("missing url parameter")

	// ErrInvalidURL is returned when the document URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("document URL must be an absolute http or https URL")

	// ErrHostNotAllowed is returned when the document host is outside documents.allowed_hosts.
	ErrHostNotAllowed = errors.New("document host is not allowed")
)

// UpstreamStatusError reports a non-2xx response from a document host.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Profile parameterizes how a fetched document is labeled for the client.
type Profile struct {
	Name               string
	DefaultContentType string
	ForceContentType   bool // ignore the upstream Content-Type
}

var (
	// ProfileDocument relays any document with the upstream content type.
	ProfileDocument = Profile{Name: "document", DefaultContentType: "application/octet-stream"}

	// ProfilePDF relays a document as application/pdf.
	ProfilePDF = Profile{Name: "pdf", DefaultContentType: "application/pdf", ForceContentType: true}
)

// DocumentService fetches remote documents on behalf of the client.
type DocumentService struct {
	client     *client.Client
	logger     *slog.Logger
	allowed    map[string]bool
	revalidate int
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(c *client.Client, cfg *config.Config, logger *slog.Logger) *DocumentService {
	var allowed map[string]bool
	if len(cfg.Documents.AllowedHosts) > 0 {
		allowed = make(map[string]bool, len(cfg.Documents.AllowedHosts))
		for _, h := range cfg.Documents.AllowedHosts {
			allowed[strings.ToLower(h)] = true
		}
	}

	revalidate := cfg.Documents.RevalidateSeconds
	if revalidate == 0 {
		revalidate = 3600
	}

	return &DocumentService{
		client:     c.Named("document"),
		logger:     logger.With("component", "document_service"),
		allowed:    allowed,
		revalidate: revalidate,
	}
}

// RevalidateSeconds returns the cache window applied to fetched documents.
func (s *DocumentService) RevalidateSeconds() int {
	return s.revalidate
}

// Fetch downloads the document at rawURL and labels it according to p.
func (s *DocumentService) Fetch(ctx context.Context, rawURL string, p Profile) (*model.Document, error) {
	if rawURL == "" {
		return nil, ErrMissingURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if s.allowed != nil && !s.allowed[strings.ToLower(u.Hostname())] {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}

	header := make(http.Header)
	header.Set("Accept", "*/*")
	header.Set("Cache-Control", fmt.Sprintf("max-age=%d", s.revalidate))

	resp, err := s.client.Send(ctx, http.MethodGet, u.String(), header, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	contentType := p.DefaultContentType
	if !p.ForceContentType {
		if ct := resp.Header.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}

	s.logger.Debug("document fetched",
		"profile", p.Name,
		"host", u.Hostname(),
		"bytes", len(resp.Body),
	)

	return &model.Document{
		ContentType:   contentType,
		ContentLength: int64(len(resp.Body)),
		Body:          resp.Body,
	}, nil
}
