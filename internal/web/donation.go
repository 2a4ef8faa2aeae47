package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/donation"
	"github.com/erazemk/doacoes/internal/model"
)

type booksPageData struct {
	PageData
	Query string
	Books []model.Book
	Stats catalog.Stats
}

// BooksPage handles GET /livros.
func (s *Server) BooksPage(w http.ResponseWriter, r *http.Request) {
	v := s.Visitors.Get(w, r)
	errMsg := ""
	if err := v.Catalog.Load(r.Context()); err != nil {
		slog.Error("failed to load catalog", "error", err)
		errMsg = apiclient.Describe(err)
	}
	s.renderBooks(w, http.StatusOK, v, r.URL.Query().Get("q"), errMsg)
}

func (s *Server) renderBooks(w http.ResponseWriter, status int, v *Visitor, q, errMsg string) {
	s.Templates.RenderStatus(w, status, "livros.html", &booksPageData{
		PageData: PageData{Title: "Livros disponíveis", Error: errMsg},
		Query:    q,
		Books:    v.Catalog.View(q),
		Stats:    v.Catalog.Stats(),
	})
}

// BookDonateSubmit handles POST /livros/{id}/doar: it opens the donation
// modal for a book from the visitor's loaded catalog.
func (s *Server) BookDonateSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	v := s.Visitors.Get(w, r)

	book, err := v.Catalog.Select(id)
	if errors.Is(err, catalog.ErrUnknownBook) {
		// The visitor's state may have been evicted since the list was shown.
		if lerr := v.Catalog.Load(r.Context()); lerr == nil {
			book, err = v.Catalog.Select(id)
		}
	}
	switch {
	case errors.Is(err, catalog.ErrSoldOut):
		s.renderBooks(w, http.StatusConflict, v, "", "Este livro não está mais disponível.")
		return
	case errors.Is(err, catalog.ErrUnknownBook):
		s.renderBooks(w, http.StatusNotFound, v, "", "Livro não encontrado.")
		return
	}

	// Picking another item abandons the session left open in the modal.
	switch err := v.Host.Reopen(r.Context(), book, v.Catalog.Refetch); {
	case errors.Is(err, donation.ErrSubmitting):
		s.renderDonation(w, http.StatusConflict, v.Host.View(), "Sua doação ainda está sendo enviada.")
		return
	case err != nil:
		s.renderBooks(w, http.StatusConflict, v, "", "Não foi possível abrir a doação.")
		return
	}
	http.Redirect(w, r, "/doacao", http.StatusSeeOther)
}

// GamesPage handles GET /jogos.
func (s *Server) GamesPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "jogos.html", &struct {
		PageData
		Games []model.GameSuggestion
	}{
		PageData: PageData{Title: "Jogos de tabuleiro"},
		Games:    catalog.GameSuggestions(),
	})
}

// GameDonateSubmit handles POST /jogos/doar.
func (s *Server) GameDonateSubmit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("jogo"))
	if name == "" {
		http.Redirect(w, r, "/jogos", http.StatusSeeOther)
		return
	}
	v := s.Visitors.Get(w, r)
	switch err := v.Host.Reopen(r.Context(), catalog.FindGame(name), nil); {
	case errors.Is(err, donation.ErrSubmitting):
		s.renderDonation(w, http.StatusConflict, v.Host.View(), "Sua doação ainda está sendo enviada.")
		return
	case err != nil:
		slog.Error("failed to open game donation", "game", name, "error", err)
		http.Redirect(w, r, "/jogos", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/doacao", http.StatusSeeOther)
}

type donationPageData struct {
	PageData
	View donation.View
}

func (s *Server) renderDonation(w http.ResponseWriter, status int, view donation.View, errMsg string) {
	data := &donationPageData{
		PageData: PageData{Title: "Confirmar doação", Error: errMsg},
		View:     view,
	}
	if out := view.Outcome; out != nil {
		if out.Succeeded {
			data.Success = out.Message
		} else if data.Error == "" {
			data.Error = out.Message
		}
	}
	s.Templates.RenderStatus(w, status, "doacao.html", data)
}

// DonationPage handles GET /doacao.
func (s *Server) DonationPage(w http.ResponseWriter, r *http.Request) {
	view := s.Visitors.Get(w, r).Host.View()
	if !view.Open() {
		http.Redirect(w, r, "/livros", http.StatusSeeOther)
		return
	}
	s.renderDonation(w, http.StatusOK, view, "")
}

// DonationSubmit handles POST /doacao.
func (s *Server) DonationSubmit(w http.ResponseWriter, r *http.Request) {
	v := s.Visitors.Get(w, r)
	in := model.PledgeForm{
		DonorName:    r.FormValue("nome"),
		DonorEmail:   r.FormValue("email"),
		ConsentGiven: r.FormValue("lgpd") != "",
	}

	out, err := v.Host.Submit(r.Context(), in)
	switch {
	case errors.Is(err, donation.ErrNotOpen):
		http.Redirect(w, r, "/livros", http.StatusSeeOther)
		return
	case errors.Is(err, donation.ErrSubmitting):
		s.renderDonation(w, http.StatusConflict, v.Host.View(), "Sua doação ainda está sendo enviada.")
		return
	case errors.Is(err, donation.ErrAlreadySucceeded):
		s.renderDonation(w, http.StatusOK, v.Host.View(), "")
		return
	}

	status := http.StatusOK
	if !out.Succeeded {
		status = http.StatusUnprocessableEntity
	}
	s.renderDonation(w, status, v.Host.View(), "")
}

// DonationClose handles POST /doacao/fechar. The catalog is refetched only
// when the session ended with a recorded pledge.
func (s *Server) DonationClose(w http.ResponseWriter, r *http.Request) {
	v := s.Visitors.Get(w, r)
	// Close clears the item, so the redirect target is read beforehand.
	view := v.Host.View()

	if err := v.Host.Close(r.Context()); err != nil {
		s.renderDonation(w, http.StatusConflict, view, "Aguarde o envio terminar antes de fechar.")
		return
	}

	next := "/livros"
	if view.Item != nil && view.Item.Kind() == model.KindGame {
		next = "/jogos"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}
