package fakeapi

import (
	"net/http"

	"github.com/erazemk/doacoes/internal/model"
)

// stats handles GET /api/stats.
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bookPledges, gamePledges, copies int
	for _, p := range s.pledges {
		switch p.Kind {
		case model.KindBook:
			bookPledges++
		case model.KindGame:
			gamePledges++
		}
	}
	for _, b := range s.books {
		copies += b.Available
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]int{
			"total_livros":       len(s.books),
			"total_doacoes":      len(s.pledges),
			"doacoes_livros":     bookPledges,
			"doacoes_jogos":      gamePledges,
			"livros_disponiveis": copies,
		},
	})
}
