package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/guard"
	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/model"
)

func newGuardedEcho(g *guard.Guard, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.Pre(RouteGuard(g, m))
	e.GET("/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})
	return e
}

func TestRouteGuard_RedirectsRoleRoots(t *testing.T) {
	e := newGuardedEcho(guard.New(nil), nil)

	tests := []struct {
		path     string
		location string
	}{
		{"/admin", "/admin/dashboard"},
		{"/recruiter", "/recruiter/dashboard"},
		{"/candidate", "/candidate/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusTemporaryRedirect {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
			}
			if got := rec.Header().Get(echo.HeaderLocation); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestRouteGuard_PassThrough(t *testing.T) {
	e := newGuardedEcho(guard.New(nil), nil)

	for _, path := range []string{"/admin/dashboard", "/administration", "/candidate/jobs", "/api/admin", "/"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}

func TestRouteGuard_TargetsSwappedAtRuntime(t *testing.T) {
	g := guard.New(nil)
	e := newGuardedEcho(g, nil)

	g.SetTargets(map[model.Role]string{model.RoleRecruiter: "/recruiter/jobs"})

	req := httptest.NewRequest(http.MethodGet, "/recruiter", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderLocation); got != "/recruiter/jobs" {
		t.Errorf("Location = %q, want %q", got, "/recruiter/jobs")
	}
}

func TestRouteGuard_CountsRedirects(t *testing.T) {
	m := metrics.New()
	e := newGuardedEcho(guard.New(nil), m)

	req := httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
	e.ServeHTTP(httptest.NewRecorder(), req)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != "jobboard_edge_guard_redirects_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "role" && lp.GetValue() == "admin" {
					if v := metric.GetCounter().GetValue(); v != 1 {
						t.Errorf("counter value = %v, want 1", v)
					}
					return
				}
			}
		}
	}
	t.Error("expected jobboard_edge_guard_redirects_total with role=admin")
}
