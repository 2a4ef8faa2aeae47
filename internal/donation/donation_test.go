package donation

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/doacoes/internal/apiclient"
	"github.com/erazemk/doacoes/internal/fakeapi"
	"github.com/erazemk/doacoes/internal/model"
)

// stubAPI records calls and returns canned results.
type stubAPI struct {
	mu         sync.Mutex
	pledges    []apiclient.Pledge
	counts     map[int64]int
	stored     map[int64]model.Book
	pledgeErr  error
	pledgeRes  apiclient.PledgeResult
	countErr   error
	block      chan struct{}
	countCalls int
}

func newStubAPI() *stubAPI {
	return &stubAPI{counts: map[int64]int{}, stored: map[int64]model.Book{}, pledgeRes: apiclient.PledgeResult{Success: true}}
}

func (s *stubAPI) CreatePledge(ctx context.Context, p apiclient.Pledge) (apiclient.PledgeResult, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pledges = append(s.pledges, p)
	if s.pledgeErr != nil {
		return apiclient.PledgeResult{}, s.pledgeErr
	}
	return s.pledgeRes, nil
}

// GetBook answers from stored; unknown ids fail so the snapshot is used.
func (s *stubAPI) GetBook(ctx context.Context, id int64) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.stored[id]
	if !ok {
		return model.Book{}, &apiclient.Error{Op: "get book", Kind: apiclient.ErrNotFound}
	}
	return b, nil
}

func (s *stubAPI) UpdateBookCount(ctx context.Context, id int64, available int) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	if s.countErr != nil {
		return model.Book{}, s.countErr
	}
	s.counts[id] = available
	return model.Book{ID: id, Available: available}, nil
}

func (s *stubAPI) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pledges), s.countCalls
}

type memJournal struct {
	entries []int64
}

func (j *memJournal) RecordDrift(ctx context.Context, book model.Book, expected int, cause error) error {
	j.entries = append(j.entries, book.ID)
	return nil
}

var (
	book = model.Book{ID: 7, Title: "Grande Sertão: Veredas", Author: "Guimarães Rosa", Available: 1}
	game = model.GameSuggestion{Name: "Catan"}
	good = model.PledgeForm{DonorName: " Ana ", DonorEmail: "ana@example.com ", ConsentGiven: true}
)

func TestSubmitPledgeBook(t *testing.T) {
	api := newStubAPI()
	ctrl := NewController(api, nil)
	var form Form
	form.Set(good)

	out := ctrl.SubmitPledge(context.Background(), book, &form)
	if !out.Succeeded || out.Message != DefaultSuccessMessage {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	p := api.pledges[0]
	if p.Item != "Grande Sertão: Veredas - Guimarães Rosa" || p.Kind != model.KindBook || p.BookID == nil || *p.BookID != 7 {
		t.Errorf("unexpected payload: %+v", p)
	}
	if p.DonorName != "Ana" || p.DonorEmail != "ana@example.com" || !p.Consent {
		t.Errorf("payload not trimmed or consent missing: %+v", p)
	}
	if api.counts[7] != 0 {
		t.Errorf("expected count decremented to 0, got %d", api.counts[7])
	}
	if !form.Empty() {
		t.Errorf("form should be reset after success: %+v", form)
	}
}

func TestSubmitPledgeGame(t *testing.T) {
	api := newStubAPI()
	api.pledgeRes.Message = "Obrigado!"
	var form Form
	form.Set(good)

	out := NewController(api, nil).SubmitPledge(context.Background(), game, &form)
	if !out.Succeeded || out.Message != "Obrigado!" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	p := api.pledges[0]
	if p.Item != model.GameItemDescription || p.Kind != model.KindGame || p.BookID != nil {
		t.Errorf("unexpected payload: %+v", p)
	}
	if _, counts := api.calls(); counts != 0 {
		t.Errorf("games must not touch stock, got %d count calls", counts)
	}
}

func TestLocalValidationMakesNoCall(t *testing.T) {
	tests := []struct {
		name string
		item model.DonatableItem
		in   model.PledgeForm
		want error
	}{
		{"no consent", book, model.PledgeForm{DonorName: "Ana", DonorEmail: "ana@example.com"}, ErrConsentRequired},
		{"blank name", book, model.PledgeForm{DonorName: "  ", DonorEmail: "ana@example.com", ConsentGiven: true}, ErrMissingFields},
		{"bad email", game, model.PledgeForm{DonorName: "Ana", DonorEmail: "ana@", ConsentGiven: true}, ErrInvalidEmail},
		{"sold out", model.Book{ID: 1, Title: "x", Author: "y"}, good, ErrSoldOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			var form Form
			form.Set(tt.in)

			out := NewController(api, nil).SubmitPledge(context.Background(), tt.item, &form)
			if out.Succeeded || !errors.Is(out.Err, tt.want) || !errors.Is(out.Err, apiclient.ErrValidation) {
				t.Fatalf("unexpected outcome: %+v", out)
			}
			if pledges, counts := api.calls(); pledges != 0 || counts != 0 {
				t.Errorf("expected no calls, got %d pledge and %d count calls", pledges, counts)
			}
			if form.Values() != tt.in {
				t.Errorf("form changed after failure: %+v", form)
			}
		})
	}
}

func TestFailedPledgeSkipsDecrementAndKeepsForm(t *testing.T) {
	api := newStubAPI()
	api.pledgeErr = &apiclient.Error{Op: "create pledge", Kind: apiclient.ErrServer, Status: 500}
	var form Form
	form.Set(good)

	out := NewController(api, nil).SubmitPledge(context.Background(), book, &form)
	if out.Succeeded || !errors.Is(out.Err, apiclient.ErrServer) {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Message != "Erro interno do servidor." {
		t.Errorf("message = %q", out.Message)
	}
	if _, counts := api.calls(); counts != 0 {
		t.Errorf("decrement attempted after failed pledge")
	}
	if form.Values() != good {
		t.Errorf("form should be kept after failure: %+v", form)
	}
}

func TestDecrementFailureIsSilent(t *testing.T) {
	api := newStubAPI()
	api.countErr = &apiclient.Error{Op: "update book count", Kind: apiclient.ErrNetwork}
	journal := &memJournal{}
	var form Form
	form.Set(good)

	out := NewController(api, journal).SubmitPledge(context.Background(), book, &form)
	if !out.Succeeded || out.Err != nil {
		t.Fatalf("decrement failure must not fail the outcome: %+v", out)
	}
	if len(journal.entries) != 1 || journal.entries[0] != book.ID {
		t.Errorf("expected drift journaled for book %d, got %v", book.ID, journal.entries)
	}
}

func TestDecrementUsesStoredCount(t *testing.T) {
	api := newStubAPI()
	snapshot := model.Book{ID: 4, Title: "Torto Arado", Author: "Itamar Vieira Junior", Available: 3}
	// Two other donors pledged since the catalog was loaded.
	api.stored[4] = model.Book{ID: 4, Title: "Torto Arado", Author: "Itamar Vieira Junior", Available: 1}
	var form Form
	form.Set(good)

	out := NewController(api, nil).SubmitPledge(context.Background(), snapshot, &form)
	if !out.Succeeded {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if api.counts[4] != 0 {
		t.Errorf("expected stored count 1 decremented to 0, got %d", api.counts[4])
	}
}

func TestDecrementFailureAgainstAPI(t *testing.T) {
	api, err := fakeapi.New("admin", "password")
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	b := api.AddBook("A Hora da Estrela", "Clarice Lispector", 1)
	api.InjectFault("PATCH", "/api/livros/1/quantidade", fakeapi.DropConnection, 1)

	client := apiclient.New(server.URL+"/api", time.Second)
	var form Form
	form.Set(good)
	out := NewController(client, nil).SubmitPledge(context.Background(), b, &form)
	if !out.Succeeded {
		t.Fatalf("expected success, got %+v", out)
	}

	stale, err := client.GetBook(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if stale.Available != 1 {
		t.Errorf("expected stale count 1, got %d", stale.Available)
	}
	if n := len(api.Pledges()); n != 1 {
		t.Errorf("expected 1 pledge recorded, got %d", n)
	}
}

func TestHostCallbackOnlyOnSuccessfulClose(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cb := func(context.Context) { calls++ }

	// Cancelled session.
	h := NewHost(NewController(newStubAPI(), nil))
	if err := h.Open(book, cb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := h.RequestClose(ctx, false); err != nil {
		t.Fatalf("RequestClose: %v", err)
	}
	h.RequestClose(ctx, true) // already closed
	if calls != 0 {
		t.Fatalf("callback invoked %d times after cancel", calls)
	}

	// Successful session, closed twice.
	if err := h.Open(book, cb); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := h.Submit(ctx, good); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	h.Close(ctx)
	h.Close(ctx)
	if calls != 1 {
		t.Errorf("expected exactly one callback, got %d", calls)
	}
	if v := h.View(); v.Open() || v.Item != nil || !v.Form.Empty() || v.Outcome != nil {
		t.Errorf("state not cleared: %+v", v)
	}
}

func TestHostFailedSubmitThenRetry(t *testing.T) {
	ctx := context.Background()
	api := newStubAPI()
	api.pledgeErr = &apiclient.Error{Kind: apiclient.ErrTimeout}
	calls := 0
	h := NewHost(NewController(api, nil))
	h.Open(game, func(context.Context) { calls++ })

	out, err := h.Submit(ctx, good)
	if err != nil || out.Succeeded {
		t.Fatalf("expected failed outcome, got %+v, %v", out, err)
	}
	if v := h.View(); v.Form.Values() != good {
		t.Errorf("form should keep input after failure: %+v", v.Form)
	}

	api.pledgeErr = nil
	out, err = h.Submit(ctx, good)
	if err != nil || !out.Succeeded {
		t.Fatalf("retry should succeed, got %+v, %v", out, err)
	}
	if _, err := h.Submit(ctx, good); !errors.Is(err, ErrAlreadySucceeded) {
		t.Errorf("expected ErrAlreadySucceeded, got %v", err)
	}
	if err := h.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one callback, got %d", calls)
	}
}

func TestHostFailedCloseSkipsCallback(t *testing.T) {
	ctx := context.Background()
	api := newStubAPI()
	api.pledgeErr = &apiclient.Error{Kind: apiclient.ErrServer}
	calls := 0
	h := NewHost(NewController(api, nil))
	h.Open(book, func(context.Context) { calls++ })
	h.Submit(ctx, good)
	h.Close(ctx)
	if calls != 0 {
		t.Errorf("callback invoked after failed submission")
	}
}

func TestHostOpenRules(t *testing.T) {
	h := NewHost(NewController(newStubAPI(), nil))
	if err := h.Open(model.Book{ID: 2, Title: "x", Author: "y"}, nil); !errors.Is(err, ErrSoldOut) {
		t.Errorf("expected ErrSoldOut, got %v", err)
	}
	if err := h.Open(book, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := h.Open(game, nil); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("expected ErrAlreadyOpen, got %v", err)
	}
	h.RequestClose(context.Background(), true) // nil callback
	if _, err := h.Submit(context.Background(), good); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestHostAtMostOneInFlight(t *testing.T) {
	ctx := context.Background()
	api := newStubAPI()
	api.block = make(chan struct{})
	h := NewHost(NewController(api, nil))
	h.Open(game, nil)

	done := make(chan error, 1)
	go func() {
		_, err := h.Submit(ctx, good)
		done <- err
	}()

	// Wait until the first submission holds the slot.
	deadline := time.Now().Add(2 * time.Second)
	for !h.View().Submitting {
		if time.Now().After(deadline) {
			t.Fatal("first submission never started")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := h.Submit(ctx, good); !errors.Is(err, ErrSubmitting) {
		t.Errorf("expected ErrSubmitting, got %v", err)
	}
	if err := h.RequestClose(ctx, false); !errors.Is(err, ErrSubmitting) {
		t.Errorf("close during submission should be refused, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if pledges, _ := api.calls(); pledges != 1 {
		t.Errorf("expected 1 pledge call, got %d", pledges)
	}
}

func TestHostReopenReplacesSession(t *testing.T) {
	ctx := context.Background()
	api := newStubAPI()
	h := NewHost(NewController(api, nil))
	gameCalls, bookCalls := 0, 0

	if err := h.Open(game, func(context.Context) { gameCalls++ }); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := h.Reopen(ctx, book, func(context.Context) { bookCalls++ }); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if gameCalls != 0 {
		t.Errorf("abandoned session should not notify, got %d callbacks", gameCalls)
	}

	if _, err := h.Submit(ctx, good); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(api.pledges) != 1 {
		t.Fatalf("expected 1 pledge, got %d", len(api.pledges))
	}
	p := api.pledges[0]
	if p.Kind != model.KindBook || p.BookID == nil || *p.BookID != book.ID {
		t.Errorf("pledge went to the wrong item: %+v", p)
	}

	// A recorded session is closed with its callback before the next opens.
	if err := h.Reopen(ctx, game, nil); err != nil {
		t.Fatalf("Reopen after success: %v", err)
	}
	if bookCalls != 1 {
		t.Errorf("expected one callback for the recorded session, got %d", bookCalls)
	}
	if v := h.View(); v.Item != model.DonatableItem(game) || v.Outcome != nil {
		t.Errorf("expected a fresh game session, got %+v", v)
	}

	if err := h.Reopen(ctx, model.Book{ID: 9, Title: "x", Author: "y"}, nil); !errors.Is(err, ErrSoldOut) {
		t.Errorf("expected ErrSoldOut, got %v", err)
	}
	if v := h.View(); v.Item != model.DonatableItem(game) {
		t.Errorf("a refused reopen must keep the current session, got %+v", v.Item)
	}
}

func TestHostReopenRefusedWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	api := newStubAPI()
	api.block = make(chan struct{})
	h := NewHost(NewController(api, nil))
	h.Open(game, nil)

	done := make(chan error, 1)
	go func() {
		_, err := h.Submit(ctx, good)
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !h.View().Submitting {
		if time.Now().After(deadline) {
			t.Fatal("submission never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := h.Reopen(ctx, book, nil); !errors.Is(err, ErrSubmitting) {
		t.Errorf("expected ErrSubmitting, got %v", err)
	}
	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("submission: %v", err)
	}
	if v := h.View(); v.Item != model.DonatableItem(game) {
		t.Errorf("session item changed during submission: %+v", v.Item)
	}
}
