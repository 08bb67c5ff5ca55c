package httpx

import (
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
)

// Authorize admits only callers whose role is in allowed. It must run after
// Authenticate; a request without an identity is rejected as unauthenticated.
func Authorize(allowed ...string) Middleware {
	required := strings.Join(allowed, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				reject(w, r, PolicyAuthorize, authsdk.NewError(authsdk.KindAccessTokenRequired, "access token required"))
				return
			}

			if !roleAllowed(id.Role, allowed) {
				reject(w, r, PolicyAuthorize, authsdk.Errorf(authsdk.KindInsufficientRole,
					"requires role %s, have %s", required, id.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// roleAllowed fails closed: a panic while matching denies access.
func roleAllowed(role string, allowed []string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return role != "" && slices.Contains(allowed, role)
}
