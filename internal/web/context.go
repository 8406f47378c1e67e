package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/vpl/internal/core"
)

// WithRequestMetadata attaches the submitting client to ctx. RemoteAddr has
// already been rewritten by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClient(ctx, core.Client{
		IP:        r.RemoteAddr,
		UserAgent: r.Header.Get("User-Agent"),
	})
}
