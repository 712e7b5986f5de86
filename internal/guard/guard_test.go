package guard

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"jobboard-edge/internal/model"
)

func TestDecide_RoleRoots(t *testing.T) {
	g := New(nil)

	tests := []struct {
		path   string
		role   model.Role
		target string
	}{
		{"/admin", model.RoleAdmin, "/admin/dashboard"},
		{"/recruiter", model.RoleRecruiter, "/recruiter/dashboard"},
		{"/candidate", model.RoleCandidate, "/candidate/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d := g.Decide(tt.path)
			assert.True(t, d.Redirect)
			assert.Equal(t, tt.role, d.Role)
			assert.Equal(t, tt.target, d.Target)
		})
	}
}

func TestDecide_PassThrough(t *testing.T) {
	g := New(nil)

	for _, path := range []string{
		"/",
		"/admin/",
		"/admin/dashboard",
		"/administration",
		"/Admin",
		"/recruiter/jobs/12",
		"/candidate/profile",
		"/jobs",
		"",
		"admin",
	} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, Decision{}, g.Decide(path))
		})
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/employee/login", true},
		{"/api", true},
		{"/_next/static/chunks/main.js", true},
		{"/_next/image", true},
		{"/favicon.ico", true},
		{"/logo.svg", true},
		{"/images/hero.png", true},
		{"/admin", false},
		{"/jobs/42", false},
		{"/candidate/profile", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Excluded(tt.path))
		})
	}
}

func TestSetTargets_Overrides(t *testing.T) {
	g := New(map[model.Role]string{
		model.RoleCandidate: "/candidate/jobs",
		model.Role("guest"): "/nowhere",
	})

	targets := g.Targets()
	require.Len(t, targets, 3)
	assert.Equal(t, "/candidate/jobs", targets[model.RoleCandidate])
	assert.Equal(t, "/admin/dashboard", targets[model.RoleAdmin])

	g.SetTargets(nil)
	assert.Equal(t, "/candidate/dashboard", g.Decide("/candidate").Target)
	assert.Len(t, g.Targets(), 3)
}

func TestSetTargets_ConcurrentDecide(t *testing.T) {
	g := New(nil)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if i%2 == 0 {
					g.SetTargets(map[model.Role]string{model.RoleAdmin: "/admin/home"})
					continue
				}
				d := g.Decide("/admin")
				assert.True(t, d.Redirect)
			}
		}()
	}
	wg.Wait()
}

func TestDecide_OnlyExactRoleRootsRedirect(t *testing.T) {
	g := New(nil)
	roots := []string{"/admin", "/recruiter", "/candidate"}

	rapid.Check(t, func(t *rapid.T) {
		var path string
		if rapid.Bool().Draw(t, "nearRole") {
			root := rapid.SampledFrom(roots).Draw(t, "root")
			suffix := rapid.StringMatching(`[a-z/]{0,8}`).Draw(t, "suffix")
			path = root + suffix
		} else {
			path = rapid.String().Draw(t, "path")
		}

		d := g.Decide(path)
		if d.Redirect != slices.Contains(roots, path) {
			t.Fatalf("Decide(%q).Redirect = %v", path, d.Redirect)
		}
	})
}
