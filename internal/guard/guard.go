// Package guard decides whether a page request for a bare role root path is
// redirected to that role's default page.
//
// Matching is exact: "/admin" redirects, "/admin/dashboard" and
// "/administration" do not. No session or role state is consulted.
package guard

import (
	"regexp"
	"sync/atomic"

	"jobboard-edge/internal/model"
)

// excludedPattern matches paths the guard never inspects: API routes,
// framework internals and the favicon. Like the page framework's matcher it
// is a prefix match on the first path characters.
var excludedPattern = regexp.MustCompile(`^/(api|_next/static|_next/image|favicon\.ico)`)

// staticFilePattern matches paths whose last segment carries a file extension.
var staticFilePattern = regexp.MustCompile(`/[^/]*\.[A-Za-z0-9]+$`)

// DefaultTargets are the redirect destinations used when no override is configured.
var DefaultTargets = map[model.Role]string{
	model.RoleAdmin:     "/admin/dashboard",
	model.RoleRecruiter: "/recruiter/dashboard",
	model.RoleCandidate: "/candidate/dashboard",
}

// Decision is the outcome for one request path. The zero value passes through.
type Decision struct {
	Redirect bool
	Role     model.Role
	Target   string
}

type route struct {
	role   model.Role
	target string
}

// Guard holds the role root redirect table. Decide is safe for concurrent
// use with SetTargets.
type Guard struct {
	routes atomic.Pointer[map[string]route]
}

// New creates a Guard from DefaultTargets with overrides applied.
func New(overrides map[model.Role]string) *Guard {
	g := &Guard{}
	g.SetTargets(overrides)
	return g
}

// SetTargets replaces the redirect table with DefaultTargets plus overrides.
// Overrides for unknown roles are ignored.
func (g *Guard) SetTargets(overrides map[model.Role]string) {
	routes := make(map[string]route, len(model.Roles))
	for _, role := range model.Roles {
		target := DefaultTargets[role]
		if t, ok := overrides[role]; ok && t != "" {
			target = t
		}
		routes["/"+string(role)] = route{role: role, target: target}
	}
	g.routes.Store(&routes)
}

// Targets returns a copy of the current redirect target per role.
func (g *Guard) Targets() map[model.Role]string {
	routes := *g.routes.Load()
	out := make(map[model.Role]string, len(routes))
	for _, r := range routes {
		out[r.role] = r.target
	}
	return out
}

// Decide returns the redirect decision for path.
func (g *Guard) Decide(path string) Decision {
	if Excluded(path) {
		return Decision{}
	}
	r, ok := (*g.routes.Load())[path]
	if !ok {
		return Decision{}
	}
	return Decision{Redirect: true, Role: r.role, Target: r.target}
}

// Excluded reports whether path is outside the guard's scope.
func Excluded(path string) bool {
	return excludedPattern.MatchString(path) || staticFilePattern.MatchString(path)
}
