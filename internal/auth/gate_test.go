package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JonMunkholm/vpl/internal/config"
	"github.com/JonMunkholm/vpl/internal/core"
)

func testConfig() config.AdminConfig {
	return config.AdminConfig{
		Username:      "admin",
		Password:      "letmein-123",
		SessionSecret: "0123456789abcdef0123456789abcdef",
		SessionTTL:    time.Hour,
	}
}

func TestNewGate_Requirements(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = ""
	_, err := NewGate(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Password = ""
	_, err = NewGate(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Password = ""
	cfg.PasswordHash = "not-a-bcrypt-hash"
	_, err = NewGate(cfg)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	g, err := NewGate(testConfig())
	require.NoError(t, err)

	assert.NoError(t, g.Authenticate("admin", "letmein-123"))

	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "letmein-123"},
		{"", ""},
		{"Admin", "letmein-123"},
	} {
		err := g.Authenticate(tc.user, tc.pass)
		assert.ErrorIs(t, err, core.ErrInvalidCredentials, "%s/%s", tc.user, tc.pass)
		assert.ErrorIs(t, err, core.ErrAuthentication)
	}
}

func TestAuthenticate_WithHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Password = "ignored"
	cfg.PasswordHash = string(hash)
	g, err := NewGate(cfg)
	require.NoError(t, err)

	assert.NoError(t, g.Authenticate("admin", "s3cret-pass"))
	assert.Error(t, g.Authenticate("admin", "ignored"))
}

func TestIssueVerify(t *testing.T) {
	g, err := NewGate(testConfig())
	require.NoError(t, err)

	token, exp, err := g.Issue("admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	s, err := g.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", s.Username)
}

func TestVerify_Rejects(t *testing.T) {
	g, err := NewGate(testConfig())
	require.NoError(t, err)

	token, _, err := g.Issue("admin")
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := g.Verify("")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := g.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("tampered", func(t *testing.T) {
		other, _, err := g.Issue("someone")
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		parts[1] = strings.Split(other, ".")[1]

		_, err = g.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("other secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.SessionSecret = "another-secret-of-enough-length"
		other, err := NewGate(cfg)
		require.NoError(t, err)
		_, err = other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("expired", func(t *testing.T) {
		g2, err := NewGate(testConfig())
		require.NoError(t, err)
		g2.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, _, err := g2.Issue("admin")
		require.NoError(t, err)

		_, err = g.Verify(old)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("different subject", func(t *testing.T) {
		other, _, err := g.Issue("someone")
		require.NoError(t, err)
		_, err = g.Verify(other)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAuthenticated(ctx))
	assert.Nil(t, SessionFromContext(ctx))

	ctx = WithSession(ctx, &Session{Username: "admin"})
	assert.True(t, IsAuthenticated(ctx))
	assert.Equal(t, "admin", SessionFromContext(ctx).Username)
}
