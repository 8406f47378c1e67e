package web

import (
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/vpl/internal/core"
	"github.com/JonMunkholm/vpl/internal/logging"
	"github.com/JonMunkholm/vpl/internal/web/templates"
)

// multipartMemory is how much of a multipart body is held in memory; the
// rest of the photo spills to a temp file.
const multipartMemory = 4 << 20

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Register(s.page(w, r, "Register")))
}

// handleRegister accepts the multipart registration form. Every outcome
// except an oversized body is reported as a flash on the form page.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Upload.MaxRequestSize
	if r.ContentLength > limit {
		s.respondError(w, r, core.PayloadTooLarge(limit), http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	multipart := true
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		switch {
		case isTooLarge(err):
			s.respondError(w, r, core.PayloadTooLarge(limit), http.StatusRequestEntityTooLarge)
			return
		case errors.Is(err, http.ErrNotMultipart):
			multipart = false
		default:
			s.respondError(w, r, errors.Wrap(err, "parse registration form"), http.StatusBadRequest)
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var upload *core.Upload
	if multipart {
		file, header, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			upload = &core.Upload{Filename: header.Filename, Content: file}
		case errors.Is(err, http.ErrMissingFile):
		default:
			s.respondError(w, r, errors.Wrap(err, "read photo"), http.StatusBadRequest)
			return
		}
	}

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.Register(ctx, registrationForm(r), upload)
	if err != nil {
		msg := core.MapError(err)
		logging.FromContext(ctx).Warn("registration rejected",
			"code", msg.Code,
			"error", err.Error(),
		)
		s.setFlash(w, r, msg.Message)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	s.setFlash(w, r, "Registration completed successfully! Your VPL ID is "+res.PublicID+".")
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func registrationForm(r *http.Request) core.RegistrationForm {
	v := r.PostFormValue
	return core.RegistrationForm{
		FullName:          v("full_name"),
		Age:               v("age"),
		Phone:             v("phone"),
		GuardianPhoneSame: v("ch_reg"),
		GuardianMobile:    v("ch_mobile"),
		GuardianName:      v("ch_name"),
		CurrentTeam:       v("current_team"),
		PreviousTeam:      v("prev_team"),
		Role:              v("role"),
		Style:             v("style"),
		ShirtName:         v("shirt_name"),
		ShirtNumber:       v("shirt_number"),
		ShirtSize:         v("shirt_size"),
		SleevePreference:  v("sleeves"),
		Comments:          v("comments"),
	}
}

// isTooLarge reports whether err came from the MaxBytesReader limit.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
