// Package model defines shared types for the edge service.
package model

import (
	"context"
	"net/http"
	"net/url"
)

// Role is one of the fixed user roles of the job board.
type Role string

// Known roles.
const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

// Roles lists every recognized role.
var Roles = []Role{RoleAdmin, RoleRecruiter, RoleCandidate}

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleCandidate:
		return true
	}
	return false
}

// ProxyRequest represents a client API call to be forwarded to the backend.
// Body is the fully read request body.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Segments []string
	Query    url.Values
	// RawQuery, when set, is forwarded verbatim instead of Query. It carries
	// inbound queries that url.ParseQuery cannot represent without loss.
	RawQuery string
	Header   http.Header
	Body     []byte
}

// ProxyResponse is a fully buffered backend response.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Document is a fetched remote document ready to be relayed.
type Document struct {
	ContentType   string
	ContentLength int64
	Body          []byte
}
