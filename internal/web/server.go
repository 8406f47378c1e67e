// Package web provides the HTTP server and handlers for player registration
// and the admin pages.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/JonMunkholm/vpl/internal/auth"
	"github.com/JonMunkholm/vpl/internal/config"
	"github.com/JonMunkholm/vpl/internal/core"
	mw "github.com/JonMunkholm/vpl/internal/web/middleware"
)

// Server is the HTTP server for the registration site.
type Server struct {
	cfg      *config.Config
	service  *core.Service
	photos   *core.PhotoStore
	gate     *auth.Gate
	flashKey []byte
	router   *chi.Mux
	server   *http.Server
	limiters []*mw.RateLimiter
}

// NewServer creates a Server with middleware and routes installed.
func NewServer(cfg *config.Config, service *core.Service, photos *core.PhotoStore, gate *auth.Gate) *Server {
	s := &Server{
		cfg:      cfg,
		service:  service,
		photos:   photos,
		gate:     gate,
		flashKey: []byte(cfg.Admin.SessionSecret),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute))
	}

	s.router.Use(mw.Session(s.gate))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	submit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		submit = s.newRateLimiter(s.cfg.Rate.SubmitLimit)
	}

	s.router.Get("/", s.handleHome)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/register", s.handleRegisterForm)
	s.router.With(submit).Post("/register", s.handleRegister)

	s.router.Get("/login", s.handleLoginForm)
	s.router.With(submit).Post("/login", s.handleLogin)
	s.router.Get("/logout", s.handleLogout)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(mw.RequireAdmin("/login"))
		r.Get("/players", s.handlePlayers)
		r.Get("/export_players", s.handleExportPlayers)
		r.Get("/uploads/{filename}", s.handlePhoto)
	})
}

func (s *Server) newRateLimiter(perMinute int) func(http.Handler) http.Handler {
	rl := mw.NewRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl.Handler(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
	})
}

// Handler returns the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "vpl",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Pages use one inline stylesheet and no scripts.
			if csp {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}
