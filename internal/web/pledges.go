package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/model"
)

type adminPledgesData struct {
	PageData
	Query   string
	Kind    string
	Pledges []model.DonationRecord
}

// AdminPledgesPage handles GET /admin/doacoes.
func (s *Server) AdminPledgesPage(w http.ResponseWriter, r *http.Request) {
	s.renderAdminPledges(w, r, http.StatusOK, "")
}

func (s *Server) renderAdminPledges(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	q := r.URL.Query().Get("q")
	data := &adminPledgesData{
		PageData: PageData{Title: "Doações registradas", User: GetWebClaims(r.Context()), Error: errMsg, Success: flash(r)},
		Query:    q,
	}

	kind, err := model.ParseKind(r.URL.Query().Get("tipo"))
	if err != nil {
		kind = 0
	}
	data.Kind = kind.Wire()

	pledges, err := s.adminClient(r).ListPledges(r.Context(), kind)
	if s.sessionExpired(w, r, err) {
		return
	}
	if err != nil {
		slog.Error("failed to list pledges", "error", err)
		if data.Error == "" {
			data.Error = apiclient.Describe(err)
		}
	}
	data.Pledges = catalog.FilterDonations(pledges, q)

	s.Templates.RenderStatus(w, status, "admin_doacoes.html", data)
}

// AdminPledgeUpdateSubmit handles POST /admin/doacoes/{id}.
func (s *Server) AdminPledgeUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	kind, err := model.ParseKind(r.FormValue("tipo"))
	if err != nil {
		s.renderAdminPledges(w, r, http.StatusUnprocessableEntity, "Tipo deve ser livro ou jogo.")
		return
	}
	in := model.PledgeEdit{
		DonorName:  r.FormValue("nome"),
		DonorEmail: r.FormValue("email"),
		Kind:       kind,
		Item:       r.FormValue("item"),
	}

	if _, err := s.adminClient(r).UpdatePledge(r.Context(), id, in); err != nil {
		if s.sessionExpired(w, r, err) {
			return
		}
		slog.Warn("failed to update pledge", "user", claims.Name(), "pledge_id", id, "error", err)
		s.renderAdminPledges(w, r, statusFor(err), apiclient.Describe(err))
		return
	}
	slog.Info("pledge updated", "user", claims.Name(), "pledge_id", id)
	redirectOK(w, r, "/admin/doacoes", "doacao-atualizada")
}

// AdminPledgeDeleteSubmit handles POST /admin/doacoes/{id}/excluir.
func (s *Server) AdminPledgeDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.adminClient(r).DeletePledge(r.Context(), id); err != nil {
		if s.sessionExpired(w, r, err) {
			return
		}
		slog.Warn("failed to delete pledge", "user", claims.Name(), "pledge_id", id, "error", err)
		s.renderAdminPledges(w, r, statusFor(err), apiclient.Describe(err))
		return
	}
	slog.Info("pledge deleted", "user", claims.Name(), "pledge_id", id)
	redirectOK(w, r, "/admin/doacoes", "doacao-excluida")
}
