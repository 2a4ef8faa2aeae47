package apiclient

import (
	"context"
	"net/http"

	"github.com/erazemk/doacoes/internal/model"
)

// Pledge is the body of POST /doacoes.
type Pledge struct {
	DonorName  string     `json:"nome"`
	DonorEmail string     `json:"email"`
	Item       string     `json:"item"`
	Kind       model.Kind `json:"tipo"`
	BookID     *int64     `json:"livro_id,omitempty"`
	Consent    bool       `json:"lgpdConsent"`
}

// PledgeResult is the API's answer to a pledge.
type PledgeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type pledgeResponse struct {
	Pledge *model.DonationRecord `json:"doacao"`
}

type listPledgesResponse struct {
	Pledges []model.DonationRecord `json:"doacoes"`
}

// CreatePledge records a pledge. A 2xx answer with success=false is reported
// as a validation failure carrying the server's message.
func (c *Client) CreatePledge(ctx context.Context, p Pledge) (PledgeResult, error) {
	const op = "create pledge"
	var res PledgeResult
	if err := c.do(ctx, op, http.MethodPost, "/doacoes", p, &res); err != nil {
		return PledgeResult{}, err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Falha ao registrar doação."
		}
		return res, &Error{Op: op, Kind: ErrValidation, Status: http.StatusOK, Message: msg}
	}
	return res, nil
}

// ListPledges returns donation records in server order. A zero kind lists all.
func (c *Client) ListPledges(ctx context.Context, kind model.Kind) ([]model.DonationRecord, error) {
	var resp listPledgesResponse
	path := queryPath("/doacoes", "tipo", kind.Wire())
	if err := c.do(ctx, "list pledges", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pledges, nil
}

// DeletePledge removes a donation record. It is never retried.
func (c *Client) DeletePledge(ctx context.Context, id int64) error {
	const op = "delete pledge"
	if id <= 0 {
		return Validation(op, "ID da doação é obrigatório.")
	}
	return c.do(ctx, op, http.MethodDelete, pledgePath(id), nil, nil)
}

// UpdatePledge replaces the editable fields of a donation record and returns
// the stored record.
func (c *Client) UpdatePledge(ctx context.Context, id int64, in model.PledgeEdit) (model.DonationRecord, error) {
	const op = "update pledge"
	in = in.Trimmed()
	switch {
	case id <= 0:
		return model.DonationRecord{}, Validation(op, "ID da doação é obrigatório.")
	case in.DonorName == "" || in.DonorEmail == "" || in.Kind == 0 || in.Item == "":
		return model.DonationRecord{}, Validation(op, "Nome, email, tipo e item são obrigatórios.")
	case !model.ValidEmail(in.DonorEmail):
		return model.DonationRecord{}, Validation(op, "Email inválido.")
	}

	var resp pledgeResponse
	if err := c.do(ctx, op, http.MethodPut, pledgePath(id), in, &resp); err != nil {
		return model.DonationRecord{}, err
	}
	if resp.Pledge == nil {
		return model.DonationRecord{}, &Error{Op: op, Kind: ErrServer, Message: "response without doacao"}
	}
	return *resp.Pledge, nil
}
