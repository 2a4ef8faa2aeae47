package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token and stores it in the bound session.
// A 401 here means bad credentials, not an expired session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	const op = "login"
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Validation(op, "Informe usuário e senha.")
	}
	if c.session == nil {
		return Validation(op, "no session to store the credential in")
	}

	var resp loginResponse
	err := c.do(ctx, op, http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if errors.Is(err, ErrSessionExpired) {
		return Validation(op, "Credenciais inválidas.")
	}
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return &Error{Op: op, Kind: ErrServer, Message: "login response without token"}
	}
	if err := c.session.Set(resp.Token); err != nil {
		return &Error{Op: op, Kind: ErrValidation, Message: "could not store credential", Err: err}
	}
	return nil
}

// Logout drops the bound credential. The API keeps no server-side session.
func (c *Client) Logout() error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear()
}
