package apiclient

import (
	"context"
	"net/http"
)

// Stats are the totals shown on the admin dashboard.
type Stats struct {
	Books           int `json:"total_livros"`
	Pledges         int `json:"total_doacoes"`
	BookPledges     int `json:"doacoes_livros"`
	GamePledges     int `json:"doacoes_jogos"`
	CopiesAvailable int `json:"livros_disponiveis"`
}

type statsResponse struct {
	Stats *Stats `json:"stats"`
}

// Stats calls GET /stats. It needs an admin session.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	const op = "stats"
	var resp statsResponse
	if err := c.do(ctx, op, http.MethodGet, "/stats", nil, &resp); err != nil {
		return Stats{}, err
	}
	if resp.Stats == nil {
		return Stats{}, &Error{Op: op, Kind: ErrServer, Message: "response without stats"}
	}
	return *resp.Stats, nil
}
