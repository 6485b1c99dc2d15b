package handler

import (
	"net/http"

	"github.com/PerrimLc/Trabalho-final-API/internal/identity"
	"github.com/PerrimLc/Trabalho-final-API/pkg/httpmiddleware"
)

// Authenticate attaches the identity forwarded by the upstream proxy to the
// request context. Requests without one pass through anonymously and are
// rejected by the handlers that need a caller.
func Authenticate() httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromHeader(r.Header)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.With(r.Context(), id)))
		})
	}
}

// RateLimitKey buckets authenticated callers by customer and anonymous
// ones by client IP.
func RateLimitKey(r *http.Request) string {
	if id, ok := identity.FromHeader(r.Header); ok {
		return "customer:" + id.CustomerID
	}
	return "ip:" + httpmiddleware.ClientIP(r)
}

// canAccess reports whether caller may see resources of customerID.
func canAccess(caller identity.Identity, customerID string) bool {
	return caller.CustomerID == customerID || caller.HasRole(identity.RoleAdmin)
}
