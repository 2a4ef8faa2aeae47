package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/model"
	"github.com/erazemk/doacoes/internal/store"
)

// driftRow is a journal entry with the book's current count, when known.
type driftRow struct {
	store.Drift
	Current   int
	HasBook   bool
	Reconcile bool // current count differs from the expected one
}

// AdminStockPage handles GET /admin/estoque.
func (s *Server) AdminStockPage(w http.ResponseWriter, r *http.Request) {
	s.renderAdminStock(w, r, http.StatusOK, "")
}

func (s *Server) renderAdminStock(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	data := &struct {
		PageData
		Rows []driftRow
	}{
		PageData: PageData{Title: "Divergências de estoque", User: GetWebClaims(r.Context()), Error: errMsg, Success: flash(r)},
	}

	entries, err := store.ListDrift(r.Context(), s.DB, false)
	if err != nil {
		slog.Error("failed to list inventory drift", "error", err)
		data.Error = "Erro ao carregar o diário de estoque."
	}

	books, err := s.adminClient(r).ListBooks(r.Context())
	if s.sessionExpired(w, r, err) {
		return
	}
	if err != nil {
		slog.Warn("failed to list books for drift page", "error", err)
	}
	current := make(map[int64]model.Book, len(books))
	for _, b := range books {
		current[b.ID] = b
	}

	for _, e := range entries {
		row := driftRow{Drift: e}
		if b, ok := current[e.BookID]; ok {
			row.HasBook = true
			row.Current = b.Available
			row.Reconcile = b.Available != e.Expected
		}
		data.Rows = append(data.Rows, row)
	}

	s.Templates.RenderStatus(w, status, "admin_estoque.html", data)
}

// AdminStockResolveSubmit handles POST /admin/estoque/{id}/resolver. With
// aplicar=1 the expected count is written to the API first.
func (s *Server) AdminStockResolveSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	entry, err := store.GetDrift(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get drift entry", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "drift entry not found", http.StatusNotFound)
		return
	}

	apply := r.FormValue("aplicar") == "1"
	if apply {
		if _, err := s.adminClient(r).UpdateBookCount(r.Context(), entry.BookID, entry.Expected); err != nil {
			if s.sessionExpired(w, r, err) {
				return
			}
			slog.Warn("failed to apply drift correction", "user", claims.Name(), "book", entry.BookTitle, "error", err)
			s.renderAdminStock(w, r, statusFor(err), apiclient.Describe(err))
			return
		}
	}

	if err := store.ResolveDrift(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to resolve drift entry", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("inventory drift resolved", "user", claims.Name(), "book", entry.BookTitle, "applied", apply, "expected", entry.Expected)
	if apply {
		redirectOK(w, r, "/admin/estoque", "estoque-ajustado")
		return
	}
	redirectOK(w, r, "/admin/estoque", "estoque-ignorado")
}
