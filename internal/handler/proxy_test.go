package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/service"
)

func serveProxy(t *testing.T, h *ProxyHandler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	return rec
}

func TestProxyHandler_Handle_LoginRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/employee/login" {
			t.Errorf("path = %q, want /employee/login", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"email":"a@b.com","password":"x"}` {
			t.Errorf("body = %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer upstream.Close()

	d := newTestDeps(upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/employee/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serveProxy(t, d.proxy, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := rec.Body.String(); got != `{"token":"abc"}` {
		t.Errorf("body = %q, want %q", got, `{"token":"abc"}`)
	}
}

func TestProxyHandler_Handle_ForwardsQueryAndHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := url.Values{"q": {"golang"}, "tag": {"remote", "senior"}}
		if !reflect.DeepEqual(r.URL.Query(), want) {
			t.Errorf("query = %v, want %v", r.URL.Query(), want)
		}
		if r.Header.Get("Authorization") != "Bearer t" {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer t")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		_, _ = w.Write([]byte(`{"jobs":[]}`))
	}))
	defer upstream.Close()

	d := newTestDeps(upstream.URL)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/search?q=golang&tag=remote&tag=senior", http.NoBody)
	req.Header.Set("Authorization", "Bearer t")
	rec := serveProxy(t, d.proxy, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestProxyHandler_Handle_UnparseableQueryForwardedVerbatim(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"semicolon", "skills=go;rust&page=2"},
		{"semicolon with escapes", "q=c%2B%2B;java&page=2"},
		{"bad escape", "q=100%&page=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				_, _ = w.Write([]byte(`{"jobs":[]}`))
			}))
			defer upstream.Close()

			d := newTestDeps(upstream.URL)
			req := httptest.NewRequest(http.MethodGet, "/api/jobs?"+tt.query, http.NoBody)
			rec := serveProxy(t, d.proxy, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if gotQuery != tt.query {
				t.Errorf("backend query = %q, want %q", gotQuery, tt.query)
			}
		})
	}
}

func TestProxyHandler_Handle_BackendStatusMirrored(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer upstream.Close()

	d := newTestDeps(upstream.URL)
	req := httptest.NewRequest(http.MethodDelete, "/api/applications/7", http.NoBody)
	rec := serveProxy(t, d.proxy, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Body.String(); got != `{"message":"invalid credentials"}` {
		t.Errorf("body = %q", got)
	}
}

func assertInternalServerError(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "Internal Server Error" {
		t.Errorf("error = %q, want %q", body["error"], "Internal Server Error")
	}
}

func TestProxyHandler_Handle_NotConfigured(t *testing.T) {
	d := newTestDeps("")

	for _, method := range proxyMethods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/jobs", strings.NewReader(`{}`))
			rec := serveProxy(t, d.proxy, req)
			assertInternalServerError(t, rec)
		})
	}
}

func TestProxyHandler_Handle_NonJSONBackend(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>502</html>"))
	}))
	defer upstream.Close()

	d := newTestDeps(upstream.URL)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", http.NoBody)
	rec := serveProxy(t, d.proxy, req)

	assertInternalServerError(t, rec)
	if strings.Contains(rec.Body.String(), "502") {
		t.Error("backend detail leaked into client body")
	}
}

func TestProxyHandler_Handle_CanceledContext(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	d := newTestDeps(upstream.URL)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", http.NoBody)
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)

	rec := serveProxy(t, d.proxy, req)
	assertInternalServerError(t, rec)
}

func TestSegments(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/api/employee/login", []string{"employee", "login"}},
		{"/api/jobs", []string{"jobs"}},
		{"/api/files/my%20cv.pdf", []string{"files", "my%20cv.pdf"}},
		{"/api/", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			u, err := url.Parse(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if got := segments(u); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("segments(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not configured", service.ErrNotConfigured, "config"},
		{"invalid json", fmt.Errorf("x: %w", service.ErrInvalidJSON), "decode"},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", fmt.Errorf("x: %w", context.Canceled), "canceled"},
		{"dns", fmt.Errorf("x: %w", &net.DNSError{Err: "no such host", Name: "backend"}), "dns"},
		{"url", &url.Error{Op: "Get", URL: "http://backend", Err: fmt.Errorf("connection refused")}, "connect"},
		{"status", &service.UpstreamStatusError{StatusCode: 404}, "upstream_status"},
		{"other", fmt.Errorf("boom"), "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
