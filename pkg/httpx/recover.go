package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/aussiebroadwan/tuckshop/pkg/slogx"
	"github.com/getsentry/sentry-go"
)

// Recover gives every request its own Sentry hub and turns a handler panic
// into a 500 DATABASE_ERROR response. It belongs right after the request
// logger so the panic is logged with the request id.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			ctx := sentry.SetHubOnContext(r.Context(), hub)
			r = r.WithContext(ctx)

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("stack", string(debug.Stack()))
					hub.RecoverWithContext(ctx, rec)
				})
				slogx.FromContext(ctx).Error("panic recovered", "panic", rec)

				authsdk.NewError(authsdk.KindDatabase, "an unexpected error occurred").WriteError(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
