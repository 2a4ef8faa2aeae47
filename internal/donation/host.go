package donation

import (
	"context"
	"errors"
	"sync"

	"github.com/erazemk/doacoes/internal/model"
)

// Host state errors.
var (
	ErrAlreadyOpen      = errors.New("donation modal already open")
	ErrNotOpen          = errors.New("donation modal not open")
	ErrSubmitting       = errors.New("submission in progress")
	ErrAlreadySucceeded = errors.New("donation already recorded")
)

// Callback is run when a successful session is closed.
type Callback func(ctx context.Context)

// State is the modal's visibility.
type State int

// Host states.
const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// View is a snapshot of the host for rendering.
type View struct {
	State      State
	Item       model.DonatableItem
	Form       Form
	Outcome    *Outcome
	Submitting bool
}

// Open reports whether the modal is showing.
func (v View) Open() bool { return v.State == StateOpen }

// Succeeded reports whether the last submission of this session succeeded.
func (v View) Succeeded() bool { return v.Outcome != nil && v.Outcome.Succeeded }

// Host owns the modal lifecycle and relays the success callback to the screen
// that opened it. Callbacks run with the host locked and must not call back
// into it.
type Host struct {
	ctrl *Controller

	mu         sync.Mutex
	state      State
	item       model.DonatableItem
	callback   Callback
	form       Form
	outcome    *Outcome
	submitting bool
}

// NewHost creates a closed host.
func NewHost(ctrl *Controller) *Host {
	return &Host{ctrl: ctrl}
}

func checkItem(item model.DonatableItem) error {
	if item == nil {
		return ErrUnsupportedItem
	}
	if book, ok := item.(model.Book); ok && book.SoldOut() {
		return ErrSoldOut
	}
	return nil
}

// Open shows the modal for item. callback may be nil.
func (h *Host) Open(item model.DonatableItem, callback Callback) error {
	if err := checkItem(item); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateOpen {
		return ErrAlreadyOpen
	}
	h.openLocked(item, callback)
	return nil
}

// Reopen replaces whatever session is showing with one for item. The previous
// session is closed as Close would close it, so its callback runs only if it
// recorded a pledge. Fails with ErrSubmitting while a submission is running.
func (h *Host) Reopen(ctx context.Context, item model.DonatableItem, callback Callback) error {
	if err := checkItem(item); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateOpen {
		if h.submitting {
			return ErrSubmitting
		}
		h.closeLocked(ctx, h.outcome != nil && h.outcome.Succeeded)
	}
	h.openLocked(item, callback)
	return nil
}

func (h *Host) openLocked(item model.DonatableItem, callback Callback) {
	h.state = StateOpen
	h.item = item
	h.callback = callback
	h.form.Reset()
	h.outcome = nil
}

// Submit runs the workflow with in. The host lock is released during the
// API calls; a second Submit meanwhile fails with ErrSubmitting.
func (h *Host) Submit(ctx context.Context, in model.PledgeForm) (Outcome, error) {
	h.mu.Lock()
	switch {
	case h.state != StateOpen:
		h.mu.Unlock()
		return Outcome{}, ErrNotOpen
	case h.submitting:
		h.mu.Unlock()
		return Outcome{}, ErrSubmitting
	case h.outcome != nil && h.outcome.Succeeded:
		h.mu.Unlock()
		return Outcome{}, ErrAlreadySucceeded
	}
	h.submitting = true
	item := h.item
	form := h.form
	form.Set(in)
	h.form = form
	h.mu.Unlock()

	out := h.ctrl.SubmitPledge(ctx, item, &form)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.submitting = false
	h.form = form
	h.outcome = &out
	return out, nil
}

// RequestClose leaves the Open state. When succeeded is true the stored
// callback runs once before the state is cleared. Closing a closed host is a
// no-op.
func (h *Host) RequestClose(ctx context.Context, succeeded bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateOpen {
		return nil
	}
	if h.submitting {
		return ErrSubmitting
	}
	h.closeLocked(ctx, succeeded)
	return nil
}

func (h *Host) closeLocked(ctx context.Context, succeeded bool) {
	if succeeded && h.callback != nil {
		h.callback(ctx)
	}
	h.state = StateClosed
	h.item = nil
	h.callback = nil
	h.form.Reset()
	h.outcome = nil
}

// Close closes the modal, notifying the opener only if the last submission
// succeeded.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	succeeded := h.outcome != nil && h.outcome.Succeeded
	h.mu.Unlock()
	return h.RequestClose(ctx, succeeded)
}

// View returns a snapshot of the host.
func (h *Host) View() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := View{
		State:      h.state,
		Item:       h.item,
		Form:       h.form,
		Submitting: h.submitting,
	}
	if h.outcome != nil {
		out := *h.outcome
		v.Outcome = &out
	}
	return v
}
