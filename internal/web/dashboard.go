package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/catalog"
)

// HomePage handles GET /.
func (s *Server) HomePage(w http.ResponseWriter, r *http.Request) {
	v := s.Visitors.Get(w, r)
	data := &struct {
		PageData
		Stats catalog.Stats
		Games int
	}{
		PageData: PageData{Title: "Doações"},
		Games:    len(catalog.GameSuggestions()),
	}
	if err := v.Catalog.Load(r.Context()); err != nil {
		slog.Error("failed to load catalog for home", "error", err)
		data.Error = apiclient.Describe(err)
	}
	data.Stats = v.Catalog.Stats()
	s.Templates.Render(w, "home.html", data)
}

// Healthz handles GET /healthz by asking the remote API for its health.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	api, err := s.API.Health(r.Context())
	if err != nil {
		slog.Warn("api health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "error": apiclient.Describe(err)})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "api": api})
}
