package donation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/model"
)

const submitOp = "submit pledge"

// Local validation failures. All of them match apiclient.ErrValidation.
var (
	ErrConsentRequired = apiclient.Validation(submitOp, "consent required")
	ErrMissingFields   = apiclient.Validation(submitOp, "name and email required")
	ErrInvalidEmail    = apiclient.Validation(submitOp, "invalid email")
	ErrSoldOut         = apiclient.Validation(submitOp, "sold out")
	ErrUnsupportedItem = apiclient.Validation(submitOp, "unsupported item")
)

// DefaultSuccessMessage is shown when the API confirms a pledge without a message.
const DefaultSuccessMessage = "Doação registrada com sucesso!"

var localMessages = map[error]string{
	ErrConsentRequired: "É necessário aceitar os termos da LGPD para continuar.",
	ErrMissingFields:   "Nome e email são obrigatórios.",
	ErrInvalidEmail:    "Email inválido.",
	ErrSoldOut:         "Este livro não está mais disponível.",
	ErrUnsupportedItem: "Item não pode ser doado.",
}

// PledgeAPI is the part of the API client the controller needs.
type PledgeAPI interface {
	CreatePledge(ctx context.Context, p apiclient.Pledge) (apiclient.PledgeResult, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	UpdateBookCount(ctx context.Context, id int64, available int) (model.Book, error)
}

// DriftJournal records reconciliations that could not be applied.
type DriftJournal interface {
	RecordDrift(ctx context.Context, book model.Book, expected int, cause error) error
}

// Outcome is the result of one submission.
type Outcome struct {
	Succeeded bool
	Message   string
	Err       error // nil when Succeeded
}

// Controller runs the pledge workflow.
type Controller struct {
	api     PledgeAPI
	journal DriftJournal
}

// NewController creates a controller. journal may be nil.
func NewController(api PledgeAPI, journal DriftJournal) *Controller {
	return &Controller{api: api, journal: journal}
}

// SubmitPledge validates the form, records the pledge and, for books, tries
// to decrement the stored count. The form is reset only on success.
func (c *Controller) SubmitPledge(ctx context.Context, item model.DonatableItem, form *Form) Outcome {
	pledge, err := c.buildPledge(item, form.Values())
	if err != nil {
		return failed(err)
	}

	res, err := c.api.CreatePledge(ctx, pledge)
	if err != nil {
		slog.Info("pledge rejected", "kind", pledge.Kind, "item", pledge.Item, "error", err)
		return failed(err)
	}

	if book, ok := item.(model.Book); ok {
		c.reconcile(ctx, book)
	}

	form.Reset()
	msg := res.Message
	if msg == "" {
		msg = DefaultSuccessMessage
	}
	slog.Info("pledge recorded", "kind", pledge.Kind, "item", pledge.Item)
	return Outcome{Succeeded: true, Message: msg}
}

func (c *Controller) buildPledge(item model.DonatableItem, in model.PledgeForm) (apiclient.Pledge, error) {
	in = in.Trimmed()
	switch {
	case !in.ConsentGiven:
		return apiclient.Pledge{}, ErrConsentRequired
	case in.DonorName == "" || in.DonorEmail == "":
		return apiclient.Pledge{}, ErrMissingFields
	case !model.ValidEmail(in.DonorEmail):
		return apiclient.Pledge{}, ErrInvalidEmail
	}

	pledge := apiclient.Pledge{
		DonorName:  in.DonorName,
		DonorEmail: in.DonorEmail,
		Consent:    true,
	}
	switch it := item.(type) {
	case model.Book:
		if it.SoldOut() {
			return apiclient.Pledge{}, ErrSoldOut
		}
		id := it.ID
		pledge.Kind = model.KindBook
		pledge.Item = it.Description()
		pledge.BookID = &id
	case model.GameSuggestion:
		pledge.Kind = model.KindGame
		pledge.Item = it.Description()
	default:
		return apiclient.Pledge{}, ErrUnsupportedItem
	}
	return pledge, nil
}

// reconcile decrements the book's count by one. The stored count is re-read
// first so pledges made since the visitor loaded the catalog are not undone;
// if that read fails the catalog snapshot is used. The read and the write are
// still two calls, so a pledge landing between them can be lost. Failures are
// logged and journaled, never returned.
func (c *Controller) reconcile(ctx context.Context, book model.Book) {
	if fresh, err := c.api.GetBook(ctx, book.ID); err == nil {
		book = fresh
	} else {
		slog.Debug("re-reading book before decrement", "book_id", book.ID, "error", err)
	}
	expected := max(book.Available-1, 0)
	_, err := c.api.UpdateBookCount(ctx, book.ID, expected)
	if err == nil {
		return
	}
	slog.Warn("inventory reconciliation failed", "book", book.Title, "book_id", book.ID, "expected", expected, "error", err)
	if c.journal == nil {
		return
	}
	if jerr := c.journal.RecordDrift(ctx, book, expected, err); jerr != nil {
		slog.Error("recording inventory drift", "book_id", book.ID, "error", jerr)
	}
}

func failed(err error) Outcome {
	return Outcome{Succeeded: false, Message: describe(err), Err: err}
}

func describe(err error) string {
	for sentinel, msg := range localMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return apiclient.Describe(err)
}
