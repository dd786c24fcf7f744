package checkout

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"trainticket/internal/domain"
)

func TestHubCompleteUnknownToken(t *testing.T) {
	h := NewHub()
	if h.Complete("nope") {
		t.Fatalf("unknown token completed")
	}
}

func TestHostedWidgetCompletesOnCallback(t *testing.T) {
	h := NewHub()
	opened := make(chan string, 1)
	w := &HostedWidget{Mode: "sandbox", Hub: h, OnOpen: func(u string) { opened <- u }}

	done := make(chan error, 1)
	go func() {
		done <- w.Checkout(context.Background(), Options{PaymentSessionID: "sess-1", RedirectTarget: "_modal"})
	}()

	var checkoutURL string
	select {
	case checkoutURL = <-opened:
	case <-time.After(2 * time.Second):
		t.Fatalf("overlay never opened")
	}
	u, err := url.Parse(checkoutURL)
	if err != nil {
		t.Fatalf("bad checkout url %q: %v", checkoutURL, err)
	}
	if !strings.HasPrefix(u.Host, "sandbox.") {
		t.Fatalf("mode missing from host %q", u.Host)
	}
	q := u.Query()
	if q.Get("session") != "sess-1" || q.Get("target") != "_modal" {
		t.Fatalf("query = %v", q)
	}
	token := q.Get("callback")
	if token == "" {
		t.Fatalf("no callback token in url")
	}

	if !h.Complete(token) {
		t.Fatalf("hub rejected its own token")
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("checkout returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("checkout never completed")
	}
	if h.Complete(token) {
		t.Fatalf("token reusable after completion")
	}
}

func TestHostedWidgetRequiresSession(t *testing.T) {
	w := &HostedWidget{Mode: "sandbox", Hub: NewHub()}
	if err := w.Checkout(context.Background(), Options{}); !domain.IsSession(err) {
		t.Fatalf("error = %v, want session error", err)
	}
}

func TestHostedWidgetContextCancel(t *testing.T) {
	h := NewHub()
	w := &HostedWidget{Mode: "sandbox", Hub: h}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- w.Checkout(ctx, Options{PaymentSessionID: "sess-1"})
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("checkout did not observe cancellation")
	}
}

func TestStubWidgetCompletesImmediately(t *testing.T) {
	if err := (StubWidget{}).Checkout(context.Background(), Options{PaymentSessionID: "s"}); err != nil {
		t.Fatalf("stub returned %v", err)
	}
	if err := (StubWidget{}).Checkout(context.Background(), Options{}); !domain.IsSession(err) {
		t.Fatalf("stub accepted empty session: %v", err)
	}
}
