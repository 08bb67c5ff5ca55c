package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
)

const refreshCookiePath = "/v1/auth"

// CookieConfig controls the refresh token cookie.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Disable for plain-HTTP local runs.
	Secure bool

	// ReturnRotated hands the rotated refresh token back on /refresh. When
	// unset the client keeps only the new access token and must log in again
	// once it expires.
	ReturnRotated bool
}

func (c CookieConfig) set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c CookieConfig) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFrom prefers the cookie over the body.
func refreshTokenFrom(r *http.Request, body string) string {
	if ck, err := r.Cookie(authsdk.RefreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return body
}
