// Package identity carries the acting customer through a request context.
//
// Authentication happens upstream. A trusted proxy forwards the
// authenticated customer id and roles as request headers, which the HTTP
// adapter turns into an Identity.
package identity

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/go-faster/errors"
)

// Request headers set by the trusted upstream.
const (
	HeaderCustomerID = "X-Customer-ID"
	HeaderRoles      = "X-Customer-Roles"
)

// Role grants access to a group of operations.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Identity is the authenticated caller.
type Identity struct {
	CustomerID string
	Roles      []Role
}

// HasRole reports whether the identity holds r.
func (i Identity) HasRole(r Role) bool {
	return slices.Contains(i.Roles, r)
}

type ctxKey struct{}

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the identity attached to ctx.
func From(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Require returns the identity attached to ctx and checks that it holds
// every role in roles.
func Require(ctx context.Context, roles ...Role) (Identity, error) {
	id, ok := From(ctx)
	if !ok || id.CustomerID == "" {
		return Identity{}, ErrUnauthenticated
	}
	for _, r := range roles {
		if !id.HasRole(r) {
			return Identity{}, errors.Wrapf(ErrForbidden, "role %s required", r)
		}
	}
	return id, nil
}

// FromHeader parses the identity headers. Roles are a comma separated list
// and are matched case-insensitively.
func FromHeader(h http.Header) (Identity, bool) {
	customerID := strings.TrimSpace(h.Get(HeaderCustomerID))
	if customerID == "" {
		return Identity{}, false
	}
	id := Identity{CustomerID: customerID}
	for _, r := range strings.Split(h.Get(HeaderRoles), ",") {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r != "" && !id.HasRole(Role(r)) {
			id.Roles = append(id.Roles, Role(r))
		}
	}
	return id, true
}
