// Package auth is the admin session gate.
//
// There is one operator account, configured by username plus a bcrypt hash
// (or a plain password hashed at startup). A successful login yields an
// HS256-signed token stored in a cookie. Every admin request verifies the
// token; nothing is kept server-side.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JonMunkholm/vpl/internal/config"
	"github.com/JonMunkholm/vpl/internal/core"
)

// RoleAdmin is the only role a session can carry.
const RoleAdmin = "admin"

const issuer = "vpl-registration"

// ErrInvalidSession is returned by Verify for missing, forged or expired tokens.
var ErrInvalidSession = errors.Mark(errors.New("invalid session"), core.ErrAuthentication)

// Claims is the signed session payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session is a verified admin session.
type Session struct {
	Username  string
	ExpiresAt time.Time
}

// Gate checks admin credentials and issues and verifies session tokens.
type Gate struct {
	username string
	hash     []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewGate builds a gate from cfg. PasswordHash wins over Password.
func NewGate(cfg config.AdminConfig) (*Gate, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}

	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, errors.Wrap(err, "parse admin password hash")
		}
		hash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash admin password")
		}
		hash = h
	default:
		return nil, errors.New("admin password or password hash is required")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Gate{
		username: cfg.Username,
		hash:     hash,
		secret:   []byte(cfg.SessionSecret),
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// TTL is how long an issued session stays valid.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Authenticate checks a username and password pair. Both are always compared
// so a wrong username costs the same as a wrong password.
func (g *Gate) Authenticate(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if !userOK || passErr != nil {
		return core.ErrInvalidCredentials
	}
	return nil
}

// Issue returns a signed session token for username.
func (g *Gate) Issue(username string) (string, time.Time, error) {
	now := g.now()
	exp := now.Add(g.ttl)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// Verify parses token and returns its session.
func (g *Gate) Verify(token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.WithSecondaryError(ErrInvalidSession, err)
	}
	if claims.Role != RoleAdmin || claims.Subject != g.username {
		return nil, ErrInvalidSession
	}

	return &Session{Username: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

type sessionKey struct{}

// WithSession stores a verified session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored by WithSession, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// IsAuthenticated reports whether ctx carries an admin session.
func IsAuthenticated(ctx context.Context) bool {
	return SessionFromContext(ctx) != nil
}
