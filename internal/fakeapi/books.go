package fakeapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/doacoes/internal/model"
)

type bookRequest struct {
	Title     string `json:"titulo"`
	Author    string `json:"autor"`
	Available *int   `json:"quantidade"`
}

type countRequest struct {
	Available *int `json:"quantidade"`
}

// AddBook seeds a book and returns it.
func (s *Server) AddBook(title, author string, available int) model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := model.Timestamp{Time: time.Now().UTC()}
	b := model.Book{
		ID:        s.nextBookID,
		Title:     title,
		Author:    author,
		Available: available,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextBookID++
	s.books = append(s.books, b)
	return b
}

// Book returns a stored book by id.
func (s *Server) Book(id int64) (model.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.bookIndex(id); i >= 0 {
		return s.books[i], true
	}
	return model.Book{}, false
}

// bookIndex must be called with s.mu held.
func (s *Server) bookIndex(id int64) int {
	for i, b := range s.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// matchingBooks returns books matching term, ordered by title.
func (s *Server) matchingBooks(term string) []model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Book{}
	for _, b := range s.books {
		if term == "" || containsFold(b.Title, term) || containsFold(b.Author, term) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// listBooks handles GET /api/livros.
func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	books := s.matchingBooks(strings.TrimSpace(r.URL.Query().Get("search")))
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "livros": books})
}

// searchBooks handles GET /api/livros/buscar.
func (s *Server) searchBooks(w http.ResponseWriter, r *http.Request) {
	books := s.matchingBooks(strings.TrimSpace(r.URL.Query().Get("q")))
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "livros": books})
}

// getBook handles GET /api/livros/{id}.
func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	book, ok := s.Book(id)
	if !ok {
		jsonError(w, http.StatusNotFound, "Livro não encontrado")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "livro": book})
}

func validateBook(req bookRequest) (string, string, int, string) {
	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	available := 0
	if req.Available != nil {
		available = *req.Available
	}
	if title == "" || author == "" {
		return "", "", 0, "Título e autor são obrigatórios"
	}
	if available < 0 {
		return "", "", 0, "Quantidade não pode ser negativa"
	}
	return title, author, available, ""
}

// duplicate must be called with s.mu held.
func (s *Server) duplicate(title, author string, except int64) bool {
	for _, b := range s.books {
		if b.ID != except && b.Title == title && b.Author == author {
			return true
		}
	}
	return false
}

// createBook handles POST /api/livros.
func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title, author, available, msg := validateBook(req)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	dup := s.duplicate(title, author, 0)
	s.mu.Unlock()
	if dup {
		jsonError(w, http.StatusBadRequest, "Já existe um livro com este título e autor")
		return
	}

	book := s.AddBook(title, author, available)
	jsonResponse(w, http.StatusCreated, map[string]any{"success": true, "livro": book})
}

// updateBook handles PUT /api/livros/{id}.
func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	var req bookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title, author, available, msg := validateBook(req)
	if msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndex(id)
	if i < 0 {
		jsonError(w, http.StatusNotFound, "Livro não encontrado")
		return
	}
	if s.duplicate(title, author, id) {
		jsonError(w, http.StatusBadRequest, "Já existe outro livro com este título e autor")
		return
	}
	s.books[i].Title = title
	s.books[i].Author = author
	s.books[i].Available = available
	s.books[i].UpdatedAt = model.Timestamp{Time: time.Now().UTC()}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "livro": s.books[i]})
}

// updateBookCount handles PATCH /api/livros/{id}/quantidade.
func (s *Server) updateBookCount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	var req countRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Available == nil {
		jsonError(w, http.StatusBadRequest, "quantidade é obrigatória")
		return
	}
	if *req.Available < 0 {
		jsonError(w, http.StatusBadRequest, "Quantidade não pode ser negativa")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndex(id)
	if i < 0 {
		jsonError(w, http.StatusNotFound, "Livro não encontrado")
		return
	}
	s.books[i].Available = *req.Available
	s.books[i].UpdatedAt = model.Timestamp{Time: time.Now().UTC()}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "livro": s.books[i]})
}

// deleteBook handles DELETE /api/livros/{id}.
func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndex(id)
	if i < 0 {
		jsonError(w, http.StatusNotFound, "Livro não encontrado")
		return
	}
	related := 0
	for _, p := range s.pledges {
		if p.BookID != nil && *p.BookID == id {
			related++
		}
	}
	if related > 0 {
		jsonError(w, http.StatusBadRequest,
			fmt.Sprintf("Não é possível excluir este livro pois existem %d doação(ões) relacionada(s)", related))
		return
	}
	s.books = append(s.books[:i], s.books[i+1:]...)
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "message": "Livro excluído com sucesso"})
}
