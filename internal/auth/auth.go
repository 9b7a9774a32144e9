// Package auth abstracts the external identity provider. The rest of the
// system only needs an opaque (userID, orgID) pair per request.
package auth

import (
	"errors"
	"net/http"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("user not authenticated")

// Identity resolves the caller of an HTTP request.
type Identity interface {
	// Authenticate returns the opaque user and org ids for the request.
	// orgID may be empty for personal accounts.
	Authenticate(r *http.Request) (userID, orgID string, err error)
}

// HeaderIdentity trusts identity headers injected by an authenticating
// reverse proxy in front of this service.
type HeaderIdentity struct {
	UserHeader string
	OrgHeader  string
}

// NewHeaderIdentity creates a HeaderIdentity with the default header names.
func NewHeaderIdentity() *HeaderIdentity {
	return &HeaderIdentity{
		UserHeader: "X-User-Id",
		OrgHeader:  "X-Org-Id",
	}
}

// Authenticate implements Identity.
func (h *HeaderIdentity) Authenticate(r *http.Request) (string, string, error) {
	userID := r.Header.Get(h.UserHeader)
	if userID == "" {
		return "", "", ErrUnauthenticated
	}
	return userID, r.Header.Get(h.OrgHeader), nil
}
