package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/model"
	"github.com/erazemk/doacoes/internal/store"
)

// flashMessages maps the ?ok= codes set by redirects after a successful POST.
var flashMessages = map[string]string{
	"livro-criado":      "Livro cadastrado com sucesso.",
	"livro-atualizado":  "Livro atualizado com sucesso.",
	"livro-excluido":    "Livro excluído com sucesso.",
	"doacao-atualizada": "Doação atualizada com sucesso.",
	"doacao-excluida":   "Doação excluída com sucesso.",
	"estoque-ajustado":  "Estoque ajustado.",
	"estoque-ignorado":  "Divergência marcada como resolvida.",
}

func redirectOK(w http.ResponseWriter, r *http.Request, path, code string) {
	http.Redirect(w, r, path+"?ok="+url.QueryEscape(code), http.StatusSeeOther)
}

func flash(r *http.Request) string {
	return flashMessages[r.URL.Query().Get("ok")]
}

type adminBooksData struct {
	PageData
	Query        string
	Books        []model.Book
	PendingDrift int
	Stats        *apiclient.Stats
}

// AdminBooksPage handles GET /admin.
func (s *Server) AdminBooksPage(w http.ResponseWriter, r *http.Request) {
	s.renderAdminBooks(w, r, http.StatusOK, "")
}

func (s *Server) renderAdminBooks(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	q := r.URL.Query().Get("q")
	data := &adminBooksData{
		PageData: PageData{Title: "Gerenciar livros", User: GetWebClaims(r.Context()), Error: errMsg, Success: flash(r)},
		Query:    q,
	}

	// Stats is the admin-only call here, so it is what detects an expired session.
	stats, err := s.adminClient(r).Stats(r.Context())
	if s.sessionExpired(w, r, err) {
		return
	}
	if err != nil {
		slog.Warn("failed to load stats", "error", err)
	} else {
		data.Stats = &stats
	}

	books, err := s.adminClient(r).ListBooks(r.Context())
	if s.sessionExpired(w, r, err) {
		return
	}
	if err != nil {
		slog.Error("failed to list books", "error", err)
		if data.Error == "" {
			data.Error = apiclient.Describe(err)
		}
	}
	data.Books = catalog.FilterBooks(books, q)

	if s.DB != nil {
		drift, err := store.ListDrift(r.Context(), s.DB, true)
		if err != nil {
			slog.Error("failed to list inventory drift", "error", err)
		}
		data.PendingDrift = len(drift)
	}

	s.Templates.RenderStatus(w, status, "admin.html", data)
}

func bookInput(r *http.Request) (model.BookInput, error) {
	in := model.BookInput{
		Title:  strings.TrimSpace(r.FormValue("titulo")),
		Author: strings.TrimSpace(r.FormValue("autor")),
	}
	raw := strings.TrimSpace(r.FormValue("quantidade"))
	if raw == "" {
		return in, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return in, apiclient.Validation("book form", "Quantidade deve ser um número inteiro.")
	}
	in.Available = n
	return in, nil
}

// adminFailure renders the books table with err, or redirects on 401.
func (s *Server) adminFailure(w http.ResponseWriter, r *http.Request, err error) {
	if s.sessionExpired(w, r, err) {
		return
	}
	s.renderAdminBooks(w, r, statusFor(err), apiclient.Describe(err))
}

// statusFor picks the response status for a failed admin action.
func statusFor(err error) int {
	switch apiclient.KindOf(err) {
	case apiclient.ErrValidation:
		return http.StatusUnprocessableEntity
	case apiclient.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// AdminBookCreateSubmit handles POST /admin/livros.
func (s *Server) AdminBookCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	in, err := bookInput(r)
	if err == nil {
		_, err = s.adminClient(r).CreateBook(r.Context(), in)
	}
	if err != nil {
		slog.Warn("failed to create book", "user", claims.Name(), "book", in.Title, "error", err)
		s.adminFailure(w, r, err)
		return
	}
	slog.Info("book created", "user", claims.Name(), "book", in.Title, "quantity", in.Available)
	redirectOK(w, r, "/admin", "livro-criado")
}

// AdminBookUpdateSubmit handles POST /admin/livros/{id}.
func (s *Server) AdminBookUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	in, err := bookInput(r)
	if err == nil {
		_, err = s.adminClient(r).UpdateBook(r.Context(), id, in)
	}
	if err != nil {
		slog.Warn("failed to update book", "user", claims.Name(), "book_id", id, "error", err)
		s.adminFailure(w, r, err)
		return
	}
	slog.Info("book updated", "user", claims.Name(), "book", in.Title, "quantity", in.Available)
	redirectOK(w, r, "/admin", "livro-atualizado")
}

// AdminBookDeleteSubmit handles POST /admin/livros/{id}/excluir.
func (s *Server) AdminBookDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.adminClient(r).DeleteBook(r.Context(), id); err != nil {
		slog.Warn("failed to delete book", "user", claims.Name(), "book_id", id, "error", err)
		s.adminFailure(w, r, err)
		return
	}
	slog.Info("book deleted", "user", claims.Name(), "book", fmt.Sprintf("id:%d", id))
	redirectOK(w, r, "/admin", "livro-excluido")
}
