package fakeapi

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/doacoes/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminInfo struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	Admin   adminInfo `json:"admin"`
}

// login handles POST /api/auth/login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Username e password são obrigatórios")
		return
	}

	if req.Username != s.adminUser {
		jsonError(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	token, err := auth.IssueToken(s.currentSecret(), req.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Success: true, Token: token, Admin: adminInfo{Username: req.Username}})
}

// health handles GET /api/health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "service": "doacoes"})
}
