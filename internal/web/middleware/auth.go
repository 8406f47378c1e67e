package middleware

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/vpl/internal/auth"
)

// SessionCookie is the cookie that carries the signed admin session.
const SessionCookie = "vpl_session"

// SessionVerifier checks a session token. *auth.Gate implements it.
type SessionVerifier interface {
	Verify(token string) (*auth.Session, error)
}

// Session verifies the session cookie, if present, and stores the session in
// the request context. Requests without a valid session pass through
// unauthenticated; a stale or forged cookie is cleared.
func Session(v SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			s, err := v.Verify(c.Value)
			if err != nil {
				slog.Debug("session: rejected cookie",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), s)))
		})
	}
}

// RequireAdmin redirects requests without an admin session to loginPath.
func RequireAdmin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsAuthenticated(r.Context()) {
				slog.Info("auth: admin page without session",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
