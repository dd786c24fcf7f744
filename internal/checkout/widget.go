package checkout

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"trainticket/internal/domain"

	"github.com/google/uuid"
)

// Options mirror what the hosted checkout accepts: the session handle plus
// how the surface is presented. RedirectTarget "_modal" renders as an
// overlay instead of a full-page redirect.
type Options struct {
	PaymentSessionID string
	RedirectTarget   string
}

// Widget is the hosted checkout surface. Checkout blocks until the widget
// reports completion; completion only means the user finished interacting
// with it, not that the charge itself succeeded.
type Widget interface {
	Checkout(ctx context.Context, opts Options) error
}

// Hub routes completion callbacks from the hosted page back to the checkout
// that is waiting on them, keyed by a one-time token.
type Hub struct {
	mu      sync.Mutex
	waiters map[string]chan struct{}
}

func NewHub() *Hub {
	return &Hub{waiters: map[string]chan struct{}{}}
}

func (h *Hub) register() (string, chan struct{}) {
	token := uuid.NewString()
	done := make(chan struct{})
	h.mu.Lock()
	h.waiters[token] = done
	h.mu.Unlock()
	return token, done
}

func (h *Hub) drop(token string) {
	h.mu.Lock()
	delete(h.waiters, token)
	h.mu.Unlock()
}

// Complete signals the checkout waiting on token. Returns false when the
// token is unknown or already completed.
func (h *Hub) Complete(token string) bool {
	h.mu.Lock()
	done, ok := h.waiters[token]
	if ok {
		delete(h.waiters, token)
	}
	h.mu.Unlock()
	if ok {
		close(done)
	}
	return ok
}

// HostedWidget drives the provider's hosted page: it exposes the checkout
// URL for the session and waits until the page posts its completion
// callback. Mode selects the provider environment (sandbox/production).
type HostedWidget struct {
	Mode   string
	Hub    *Hub
	OnOpen func(checkoutURL string)
}

func (w *HostedWidget) Checkout(ctx context.Context, opts Options) error {
	if opts.PaymentSessionID == "" {
		return domain.SessionError{Msg: "no payment session id"}
	}
	token, done := w.Hub.register()
	if w.OnOpen != nil {
		w.OnOpen(w.checkoutURL(opts, token))
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.Hub.drop(token)
		return ctx.Err()
	}
}

func (w *HostedWidget) checkoutURL(opts Options, token string) string {
	target := opts.RedirectTarget
	if target == "" {
		target = "_modal"
	}
	return fmt.Sprintf("https://%s.checkout.example.com/pay?session=%s&target=%s&callback=%s",
		w.Mode, url.QueryEscape(opts.PaymentSessionID), url.QueryEscape(target), token)
}

// StubWidget completes immediately. Used in tests and when CHECKOUT_MODE is
// "stub", so the whole flow can run without a hosted page.
type StubWidget struct {
	Err error
}

func (w StubWidget) Checkout(ctx context.Context, opts Options) error {
	if opts.PaymentSessionID == "" {
		return domain.SessionError{Msg: "no payment session id"}
	}
	if w.Err != nil {
		return w.Err
	}
	return ctx.Err()
}
