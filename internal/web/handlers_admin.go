package web

import (
	"bytes"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/vpl/internal/core"
	"github.com/JonMunkholm/vpl/internal/logging"
	mw "github.com/JonMunkholm/vpl/internal/web/middleware"
	"github.com/JonMunkholm/vpl/internal/web/templates"
)

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Login(s.page(w, r, "Admin Login"), ""))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, errors.Wrap(err, "parse login form"), http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	log := logging.WithFields(r.Context(), "username", username, "ip", r.RemoteAddr)

	if err := s.gate.Authenticate(username, r.PostFormValue("password")); err != nil {
		log.Warn("admin login failed")
		p := s.page(w, r, "Admin Login")
		p.Flash = core.MapError(err).Message
		s.render(w, r, http.StatusUnauthorized, templates.Login(p, username))
		return
	}

	token, exp, err := s.gate.Issue(username)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(s.gate.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Admin.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("admin logged in")
	s.setFlash(w, r, "Welcome, Admin!")
	http.Redirect(w, r, "/players", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Admin.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.service.ListPlayers(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, templates.Players(s.page(w, r, "Players"), players))
}

// handleExportPlayers streams every registration as a CSV attachment. The
// file is built in memory first so a store error still gets a proper status.
func (s *Server) handleExportPlayers(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.ExportCSV(r.Context(), &buf); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+core.ExportFilename)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}

// handlePhoto serves a stored player photo to the admin.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := s.photos.Open(name)
	if err != nil {
		if errors.Is(err, core.ErrInvalidFilename) || errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}
