package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/doacoes/internal/model"
)

type pledgeRequest struct {
	DonorName  string `json:"nome"`
	DonorEmail string `json:"email"`
	Kind       string `json:"tipo"`
	Item       string `json:"item"`
	BookID     *int64 `json:"livro_id"`
	Consent    bool   `json:"lgpdConsent"`
}

// Pledges returns a copy of the stored donation records, oldest first.
func (s *Server) Pledges() []model.DonationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DonationRecord, len(s.pledges))
	copy(out, s.pledges)
	return out
}

// createPledge handles POST /api/doacoes. Unlike the counting endpoint it does
// not touch the book's available count; clients reconcile that separately.
func (s *Server) createPledge(w http.ResponseWriter, r *http.Request) {
	var req pledgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.DonorName)
	email := strings.TrimSpace(req.DonorEmail)
	item := strings.TrimSpace(req.Item)
	if name == "" || email == "" || req.Kind == "" || item == "" {
		jsonError(w, http.StatusBadRequest, "Nome, email, tipo e item são obrigatórios")
		return
	}
	if !req.Consent {
		jsonError(w, http.StatusBadRequest, "É necessário aceitar os termos da LGPD")
		return
	}
	if !model.ValidEmail(email) {
		jsonError(w, http.StatusBadRequest, "Email inválido")
		return
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil || kind == 0 || req.Kind != kind.Wire() {
		jsonError(w, http.StatusBadRequest, `Tipo deve ser "livro" ou "jogo"`)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var bookID *int64
	if kind == model.KindBook && req.BookID != nil {
		i := s.bookIndex(*req.BookID)
		if i < 0 {
			jsonError(w, http.StatusNotFound, "Livro não encontrado")
			return
		}
		if s.books[i].Available <= 0 {
			jsonError(w, http.StatusBadRequest, "Livro não está disponível")
			return
		}
		id := *req.BookID
		bookID = &id
	}

	rec := model.DonationRecord{
		ID:         s.nextPledge,
		DonorName:  name,
		DonorEmail: email,
		Kind:       kind,
		Item:       item,
		BookID:     bookID,
		CreatedAt:  model.Timestamp{Time: time.Now().UTC()},
	}
	s.nextPledge++
	s.pledges = append(s.pledges, rec)

	jsonResponse(w, http.StatusCreated, map[string]any{
		"success": true,
		"doacao":  rec,
		"message": "Doação registrada com sucesso!",
	})
}

// listPledges handles GET /api/doacoes, newest first.
func (s *Server) listPledges(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	kind, err := model.ParseKind(r.URL.Query().Get("tipo"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, `Tipo deve ser "livro" ou "jogo"`)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.DonationRecord{}
	for i := len(s.pledges) - 1; i >= 0; i-- {
		p := s.pledges[i]
		if kind != 0 && p.Kind != kind {
			continue
		}
		if search != "" && !containsFold(p.DonorName, search) && !containsFold(p.DonorEmail, search) && !containsFold(p.Item, search) {
			continue
		}
		out = append(out, p)
	}
	jsonResponse(w, http.StatusOK, map[string]any{"success": true, "doacoes": out})
}

// updatePledge handles PUT /api/doacoes/{id}. The linked book and its count
// are left alone.
func (s *Server) updatePledge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pledge id")
		return
	}
	var req pledgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.DonorName)
	email := strings.TrimSpace(req.DonorEmail)
	item := strings.TrimSpace(req.Item)
	if name == "" || email == "" || req.Kind == "" || item == "" {
		jsonError(w, http.StatusBadRequest, "Nome, email, tipo e item são obrigatórios")
		return
	}
	if !model.ValidEmail(email) {
		jsonError(w, http.StatusBadRequest, "Email inválido")
		return
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil || kind == 0 || req.Kind != kind.Wire() {
		jsonError(w, http.StatusBadRequest, `Tipo deve ser "livro" ou "jogo"`)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pledges {
		p := &s.pledges[i]
		if p.ID != id {
			continue
		}
		p.DonorName = name
		p.DonorEmail = email
		p.Kind = kind
		p.Item = item
		jsonResponse(w, http.StatusOK, map[string]any{"success": true, "doacao": *p})
		return
	}
	jsonError(w, http.StatusNotFound, "Doação não encontrada")
}

// deletePledge handles DELETE /api/doacoes/{id}. Deleting a book pledge
// returns the copy to the book's available count.
func (s *Server) deletePledge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pledge id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pledges {
		if p.ID != id {
			continue
		}
		if p.Kind == model.KindBook && p.BookID != nil {
			if bi := s.bookIndex(*p.BookID); bi >= 0 {
				s.books[bi].Available++
				s.books[bi].UpdatedAt = model.Timestamp{Time: time.Now().UTC()}
			}
		}
		s.pledges = append(s.pledges[:i], s.pledges[i+1:]...)
		jsonResponse(w, http.StatusOK, map[string]any{"success": true, "message": "Doação excluída com sucesso"})
		return
	}
	jsonError(w, http.StatusNotFound, "Doação não encontrada")
}
