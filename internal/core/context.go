package core

import (
	"context"
	"log/slog"
)

// Client identifies who submitted a registration. It is attached to the
// request context by the HTTP layer and only used for logging.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// WithClient returns a copy of ctx carrying c.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the Client stored in ctx, or the zero Client.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// LogValue groups the client attributes; empty values are left out.
func (c Client) LogValue() slog.Value {
	var attrs []slog.Attr
	if c.IP != "" {
		attrs = append(attrs, slog.String("ip", c.IP))
	}
	if c.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", c.UserAgent))
	}
	return slog.GroupValue(attrs...)
}
