// Package award orchestrates spending coins on a post or comment: fetch
// balance, pick a sticker, confirm, submit, then reconcile the balance
// with the backend. The backend procedure is the atomic unit (debit +
// record + notify enqueue); this controller never compensates for
// partial failure because none is observable.
package award

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roastlabs/roastapp-client/internal/logging"
	"github.com/roastlabs/roastapp-client/internal/metrics"
)

// State is the flow's current step.
type State string

const (
	StateClosed            State = "closed"
	StateLoading           State = "loading"
	StateCatalog           State = "catalog"
	StateInsufficientFunds State = "insufficient_funds"
	StateConfirming        State = "confirming"
	StateSubmitting        State = "submitting"
)

// notifyTimeout bounds the background notification call, which outlives
// the award submission's context.
const notifyTimeout = 30 * time.Second

// Errors raised by the flow. ErrSelfTarget and ErrInsufficientFunds are
// expected user-facing outcomes, not failures.
var (
	ErrSelfTarget        = errors.New("cannot award your own content")
	ErrInsufficientFunds = errors.New("not enough coins")
	ErrUnknownSticker    = errors.New("unknown sticker")
	ErrWrongState        = errors.New("operation not valid in current state")
)

// Target identifies what is being awarded.
type Target struct {
	ID       string
	AuthorID string
	// IsComment selects the comment variant of the backend procedure.
	IsComment bool
}

func (t Target) kindWord() string {
	if t.IsComment {
		return "comment"
	}
	return "post"
}

// Gateway is the slice of the backend the flow depends on.
type Gateway interface {
	GetCoinBalance(ctx context.Context, userID string) (int, error)
	AwardPost(ctx context.Context, actingUserID, postID, stickerID string) error
	AwardComment(ctx context.Context, actingUserID, commentID, stickerID string) error
	CreateNotification(ctx context.Context, targetUserID, fromUserID, kind, content, referenceID, referenceType string) error
}

// Flow is one instance of the award sequence. Steps within an instance
// are serialized; re-opening always restarts from a fresh balance fetch
// so a stale balance can never reach confirmation.
type Flow struct {
	gw      Gateway
	logger  logging.Logger
	metrics *metrics.Metrics

	actingUserID string

	mu       sync.Mutex
	state    State
	target   Target
	balance  int
	selected Sticker
	errMsg   string
}

// NewFlow creates a closed flow for the acting user. metrics may be nil.
func NewFlow(gw Gateway, logger logging.Logger, m *metrics.Metrics, actingUserID string) *Flow {
	return &Flow{
		gw:           gw,
		logger:       logger,
		metrics:      m,
		actingUserID: actingUserID,
		state:        StateClosed,
	}
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Balance returns the last balance fetched from the backend. It is never
// computed locally.
func (f *Flow) Balance() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance
}

// Err returns the last recorded error message.
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Selected returns the currently selected sticker, valid in
// InsufficientFunds and Confirming.
func (f *Flow) Selected() Sticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// Open starts (or restarts) the flow against a target: fetch the acting
// user's balance, then present the catalog. A failed fetch closes the
// flow with the error recorded.
func (f *Flow) Open(ctx context.Context, target Target) error {
	f.mu.Lock()
	f.state = StateLoading
	f.target = target
	f.selected = Sticker{}
	f.errMsg = ""
	f.mu.Unlock()

	balance, err := f.gw.GetCoinBalance(ctx, f.actingUserID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateClosed
		f.errMsg = err.Error()
		return err
	}
	f.balance = balance
	f.state = StateCatalog
	return nil
}

// Select picks a catalog entry. Targets authored by the acting user are
// rejected here and never submitted; the backend still enforces the same
// rule. A price above the balance routes to InsufficientFunds (a path to
// the coin shop), anything else to Confirming.
func (f *Flow) Select(stickerID string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCatalog && f.state != StateInsufficientFunds {
		return f.state, fmt.Errorf("%w: select from %s", ErrWrongState, f.state)
	}
	sticker, ok := FindSticker(stickerID)
	if !ok {
		return f.state, fmt.Errorf("%w: %s", ErrUnknownSticker, stickerID)
	}
	if f.target.AuthorID == f.actingUserID {
		// Selection is a no-op for own content.
		f.state = StateCatalog
		return f.state, ErrSelfTarget
	}

	f.selected = sticker
	if f.balance < sticker.CoinPrice {
		f.state = StateInsufficientFunds
		return f.state, ErrInsufficientFunds
	}
	f.state = StateConfirming
	return f.state, nil
}

// Cancel backs out of a pending selection to the catalog.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateConfirming || f.state == StateInsufficientFunds {
		f.state = StateCatalog
		f.selected = Sticker{}
	}
}

// Confirm submits the award. On success the balance is re-fetched from
// the backend (never decremented locally) and the author's notification
// is dispatched fire-and-forget; the returned channel reports the
// notification outcome and may be ignored. On failure the flow returns
// to the catalog and local state is exactly what it was before
// submission.
func (f *Flow) Confirm(ctx context.Context) (<-chan error, error) {
	f.mu.Lock()
	if f.state != StateConfirming {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm from %s", ErrWrongState, f.state)
	}
	f.state = StateSubmitting
	target := f.target
	sticker := f.selected
	f.mu.Unlock()

	var err error
	if target.IsComment {
		err = f.gw.AwardComment(ctx, f.actingUserID, target.ID, sticker.ID)
	} else {
		err = f.gw.AwardPost(ctx, f.actingUserID, target.ID, sticker.ID)
	}
	if err != nil {
		if f.metrics != nil {
			f.metrics.AwardsFailed.Inc()
		}
		f.mu.Lock()
		f.state = StateCatalog
		f.errMsg = err.Error()
		f.mu.Unlock()
		return nil, err
	}
	if f.metrics != nil {
		f.metrics.AwardsSubmitted.Inc()
	}

	// The displayed balance must come from the backend, not from
	// subtracting a price the backend may disagree with.
	if balance, berr := f.gw.GetCoinBalance(ctx, f.actingUserID); berr != nil {
		f.logger.Warn("balance re-fetch after award failed", "err", berr)
	} else {
		f.mu.Lock()
		f.balance = balance
		f.mu.Unlock()
	}

	result := f.notifyAuthor(target, sticker)

	f.mu.Lock()
	f.state = StateClosed
	f.selected = Sticker{}
	f.errMsg = ""
	f.mu.Unlock()
	return result, nil
}

// notifyAuthor alerts the target's author in the background. Failure is
// logged and counted, never propagated: the award already succeeded.
func (f *Flow) notifyAuthor(target Target, sticker Sticker) <-chan error {
	result := make(chan error, 1)
	message := fmt.Sprintf("awarded your %s with %s", target.kindWord(), sticker.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := f.gw.CreateNotification(ctx, target.AuthorID, f.actingUserID,
			"award", message, target.ID, target.kindWord())
		if err != nil {
			f.logger.Warn("award notification failed", "target", target.ID, "err", err)
			if f.metrics != nil {
				f.metrics.NotifyDropped.Inc()
			}
		}
		result <- err
	}()
	return result
}

// Close discards all transient selection state.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateClosed
	f.target = Target{}
	f.selected = Sticker{}
	f.errMsg = ""
}
