package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/doacoes/internal/apiclient"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if s.session(w, r).Active() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &loginData{PageData: PageData{Title: "Login administrativo"}})
}

type loginData struct {
	PageData
	Username string
}

// LoginSubmit handles POST /login. The API issues the token; it is kept
// sealed in a cookie.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	client := s.API.WithSession(s.session(w, r))
	if err := client.Login(r.Context(), username, password); err != nil {
		status := http.StatusOK
		if !errors.Is(err, apiclient.ErrValidation) {
			slog.Error("login failed", "user", username, "error", err)
			status = http.StatusBadGateway
		} else {
			slog.Warn("login rejected", "user", username, "remote", r.RemoteAddr)
		}
		s.Templates.RenderStatus(w, status, "login.html", &loginData{
			PageData: PageData{Title: "Login administrativo", Error: apiclient.Describe(err)},
			Username: username,
		})
		return
	}

	slog.Info("admin logged in", "user", username)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.API.WithSession(s.session(w, r)).Logout(); err != nil {
		slog.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// adminClient returns the API client bound to the request's admin session.
func (s *Server) adminClient(r *http.Request) *apiclient.Client {
	return s.API.WithSession(GetSession(r.Context()))
}

// sessionExpired handles a 401 from an admin call: the credential is
// dropped and the browser sent to the login page. It reports whether it
// wrote a response.
func (s *Server) sessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, apiclient.ErrSessionExpired) {
		return false
	}
	if sess := GetSession(r.Context()); sess != nil {
		sess.Clear()
	} else {
		clearAuthCookie(w, s.CookieSecure)
	}
	slog.Info("api rejected admin session", "path", r.URL.Path)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}
