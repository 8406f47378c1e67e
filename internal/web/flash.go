package web

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JonMunkholm/vpl/internal/logging"
)

// flashCookie carries a one-shot message across the redirect that follows a
// form post. The value is an HS256 token signed with the session secret, so
// only messages this server set are ever displayed.
const (
	flashCookie = "vpl_flash"
	flashIssuer = "vpl-flash"
	flashTTL    = 5 * time.Minute
)

type flashClaims struct {
	Message string `json:"msg"`
	jwt.RegisteredClaims
}

func (s *Server) setFlash(w http.ResponseWriter, r *http.Request, msg string) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, flashClaims{
		Message: msg,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    flashIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
	}).SignedString(s.flashKey)
	if err != nil {
		logging.FromContext(r.Context()).Error("sign flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(flashTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Admin.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending message, if any, and clears it. Cookies that
// fail verification are cleared and show nothing.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Admin.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	var claims flashClaims
	_, err = jwt.ParseWithClaims(c.Value, &claims,
		func(*jwt.Token) (any, error) { return s.flashKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(flashIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logging.FromContext(r.Context()).Debug("discarding flash cookie", "error", err)
		return ""
	}
	return claims.Message
}
