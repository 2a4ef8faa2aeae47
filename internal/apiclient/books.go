package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/erazemk/doacoes/internal/model"
)

type listBooksResponse struct {
	Books []model.Book `json:"livros"`
}

type bookEnvelope struct {
	Book *model.Book `json:"livro"`
}

type countRequest struct {
	Available int `json:"quantidade"`
}

// decodeBook accepts either a bare book object or one wrapped in {"livro": ...}.
func decodeBook(op string, raw json.RawMessage) (model.Book, error) {
	var env bookEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Book != nil {
		return *env.Book, nil
	}
	var book model.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		return model.Book{}, &Error{Op: op, Kind: ErrServer, Message: "malformed response", Err: err}
	}
	return book, nil
}

// ListBooks returns all books in server order.
func (c *Client) ListBooks(ctx context.Context) ([]model.Book, error) {
	var resp listBooksResponse
	if err := c.do(ctx, "list books", http.MethodGet, "/livros", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

// SearchBooks asks the API for books matching term.
func (c *Client) SearchBooks(ctx context.Context, term string) ([]model.Book, error) {
	var resp listBooksResponse
	path := queryPath("/livros/buscar", "q", strings.TrimSpace(term))
	if err := c.do(ctx, "search books", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

// GetBook returns one book.
func (c *Client) GetBook(ctx context.Context, id int64) (model.Book, error) {
	const op = "get book"
	if id <= 0 {
		return model.Book{}, Validation(op, "ID do livro é obrigatório.")
	}
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, bookPath(id), nil, &raw); err != nil {
		return model.Book{}, err
	}
	return decodeBook(op, raw)
}

func validateBookInput(op string, in model.BookInput) (model.BookInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" {
		return in, Validation(op, "Título e autor são obrigatórios.")
	}
	if in.Available < 0 {
		return in, Validation(op, "Quantidade não pode ser negativa.")
	}
	return in, nil
}

// CreateBook adds a book and returns it as stored by the API.
func (c *Client) CreateBook(ctx context.Context, in model.BookInput) (model.Book, error) {
	const op = "create book"
	in, err := validateBookInput(op, in)
	if err != nil {
		return model.Book{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPost, "/livros", in, &raw); err != nil {
		return model.Book{}, err
	}
	return decodeBook(op, raw)
}

// UpdateBook replaces a book's editable fields.
func (c *Client) UpdateBook(ctx context.Context, id int64, in model.BookInput) (model.Book, error) {
	const op = "update book"
	if id <= 0 {
		return model.Book{}, Validation(op, "ID do livro é obrigatório.")
	}
	in, err := validateBookInput(op, in)
	if err != nil {
		return model.Book{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPut, bookPath(id), in, &raw); err != nil {
		return model.Book{}, err
	}
	return decodeBook(op, raw)
}

// UpdateBookCount sets a book's available count.
func (c *Client) UpdateBookCount(ctx context.Context, id int64, available int) (model.Book, error) {
	const op = "update book count"
	if id <= 0 {
		return model.Book{}, Validation(op, "ID do livro é obrigatório.")
	}
	if available < 0 {
		return model.Book{}, Validation(op, "Quantidade não pode ser negativa.")
	}
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPatch, bookPath(id)+"/quantidade", countRequest{Available: available}, &raw); err != nil {
		return model.Book{}, err
	}
	return decodeBook(op, raw)
}

// DeleteBook removes a book. It is never retried.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	const op = "delete book"
	if id <= 0 {
		return Validation(op, "ID do livro é obrigatório.")
	}
	return c.do(ctx, op, http.MethodDelete, bookPath(id), nil, nil)
}
