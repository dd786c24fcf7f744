package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"trainticket/internal/checkout"
	"trainticket/internal/domain"
	"trainticket/internal/utils"
)

// State of one checkout attempt.
type State string

const (
	StateIdle             State = "idle"
	StateSessionRequested State = "session_requested"
	StateWidgetActive     State = "widget_active"
	StateSettling         State = "settling"
	StateNavigated        State = "navigated"
	StateVerifying        State = "verifying"
	StateDone             State = "done"
	StateErrored          State = "errored"
)

// VerifyOutcome is delivered on the detached verification channel.
type VerifyOutcome struct {
	OrderID string
	Err     error
}

// Result of a settled checkout: where to send the user and whether the
// ticket document was staged for download.
type Result struct {
	OrderID  string `json:"order_id"`
	Redirect string `json:"redirect"`
	Document bool   `json:"document"`
}

// CheckoutService runs the payment-confirmation workflow for one booking:
// session creation, hosted widget, seat settlement, proof artifacts,
// navigation and post-hoc verification. The widget handle is owned here and
// not exposed elsewhere.
type CheckoutService struct {
	Gateway      Gateway
	Widget       checkout.Widget
	Tickets      TicketService
	Capture      *CaptureService
	Docs         *DocsService
	ListingRoute string

	// VerifyBeforeSettle treats widget completion as "user finished
	// interacting", not proof of a charge: the verification call runs first
	// and settlement is refused unless the backend confirms the payment.
	VerifyBeforeSettle bool

	mu        sync.Mutex
	state     State
	requestID string
	orderID   string
	verify    chan VerifyOutcome
}

func NewCheckoutService(gw Gateway, w checkout.Widget, tickets TicketService, capture *CaptureService, docs *DocsService, listingRoute string) *CheckoutService {
	return &CheckoutService{
		Gateway:      gw,
		Widget:       w,
		Tickets:      tickets,
		Capture:      capture,
		Docs:         docs,
		ListingRoute: listingRoute,
		state:        StateIdle,
		verify:       make(chan VerifyOutcome, 1),
	}
}

func (s *CheckoutService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// VerifyResults exposes the detached verification channel. It is
// independent of the navigation transition; nothing in the workflow waits
// on it.
func (s *CheckoutService) VerifyResults() <-chan VerifyOutcome {
	return s.verify
}

// Pay runs the workflow end to end. A second call while an attempt is in
// flight is rejected; a fresh attempt is allowed again after Errored.
func (s *CheckoutService) Pay(ctx context.Context, requestID, bookingID string) (Result, error) {
	if err := s.begin(requestID); err != nil {
		return Result{}, err
	}
	res, err := s.run(ctx, bookingID)
	if err != nil {
		s.setState(StateErrored)
		utils.LogEvent(requestID, "checkout", "errored", err.Error())
		return Result{}, err
	}
	return res, nil
}

func (s *CheckoutService) begin(requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateErrored:
	case StateDone:
		return domain.ConflictError{Resource: "booking", Msg: "already paid"}
	default:
		return domain.ConflictError{Resource: "checkout", Msg: "payment already in progress"}
	}
	s.state = StateSessionRequested
	s.requestID = requestID
	return nil
}

func (s *CheckoutService) run(ctx context.Context, bookingID string) (Result, error) {
	booking, err := s.Tickets.BookingFor(ctx, bookingID)
	if err != nil {
		return Result{}, err
	}
	train, err := s.Tickets.TrainFor(ctx, booking.Code)
	if err != nil {
		return Result{}, err
	}

	sess, err := s.Gateway.CreatePaymentSession(ctx)
	if err != nil {
		return Result{}, err
	}
	// A session without an id authorizes nothing; the widget must never see
	// it.
	if strings.TrimSpace(sess.SessionID) == "" {
		return Result{}, domain.SessionError{Msg: "backend issued no payment session id"}
	}
	s.mu.Lock()
	s.orderID = sess.OrderID
	s.mu.Unlock()

	s.setState(StateWidgetActive)
	if err := s.Widget.Checkout(ctx, checkout.Options{
		PaymentSessionID: sess.SessionID,
		RedirectTarget:   "_modal",
	}); err != nil {
		return Result{}, err
	}
	utils.LogEvent(s.reqID(), "checkout", "widget_done", "order_id="+sess.OrderID)

	if s.VerifyBeforeSettle {
		if err := s.Gateway.VerifyPayment(ctx, sess.OrderID); err != nil {
			return Result{}, fmt.Errorf("payment not confirmed, refusing to settle: %w", err)
		}
	}

	s.setState(StateSettling)
	updated, err := train.SettleFor(booking.SeatClass())
	if err != nil {
		return Result{}, err
	}
	updateErr := s.Gateway.UpdateTrainSeats(ctx, updated.ID, updated)
	// The cached copy is stale after any write attempt; the next checkout on
	// this train must refetch the current record and revision.
	s.Tickets.Trains.drop(booking.Code)
	if updateErr != nil {
		// Already-charged money with unsettled inventory: halt loudly, keep
		// the order id around for reconciliation.
		utils.LogEvent(s.reqID(), "checkout", "settle_failed", "order_id="+sess.OrderID)
		return Result{}, updateErr
	}
	utils.LogEvent(s.reqID(), "checkout", "settled",
		fmt.Sprintf("train=%s booked_seats=%d", updated.ID, updated.BookedSeats))

	// Proof artifacts are best effort from here on; the purchase is settled
	// and navigation happens regardless.
	images := s.captureProof(ctx, booking)
	docErr := s.Docs.BuildAndSave(domain.TicketDocumentData{
		Name:     booking.Name,
		Title:    "Personal Doc",
		Location: booking.Source + " - " + booking.Destination,
		Date:     journeyDateDisplay,
	}, images)
	if docErr != nil {
		utils.LogEvent(s.reqID(), "checkout", "document_failed", docErr.Error())
	}

	s.setState(StateNavigated)
	res := Result{
		OrderID:  sess.OrderID,
		Redirect: s.ListingRoute,
		Document: docErr == nil,
	}
	s.finishVerification(sess.OrderID)
	return res, nil
}

// captureProof snapshots the on-screen summary for embedding in the ticket
// document. The fare line only exists in the captured artifact, not in the
// normal view.
func (s *CheckoutService) captureProof(ctx context.Context, booking domain.PassengerBooking) []string {
	if s.Capture == nil {
		return nil
	}
	hidden := &HiddenBlock{}
	fare := booking.Fare()
	if fare == "" {
		fare = "N/A"
	}
	unmount := s.Capture.Mount(&Region{
		Class:  SummaryRegionClass,
		Hidden: hidden,
		Render: TextRenderer([]string{
			"Ticket Summary",
			booking.Train + " - " + booking.Code,
			booking.Source + " -> " + booking.Destination,
			"Journey Date: " + journeyDateDisplay,
			"Passenger: " + booking.Name,
			"Class: " + booking.SeatClass() + "  Quota: " + summaryQuota,
		}, hidden, []string{
			"Pay Amount: " + fare,
		}),
	})
	defer unmount()

	images, err := s.Capture.CaptureRegions(ctx, SummaryRegionClass)
	if err != nil {
		utils.LogEvent(s.reqID(), "checkout", "capture_failed", err.Error())
		return nil
	}
	return images
}

// finishVerification fires the post-navigation confirmation. The task is
// detached: its outcome lands on the verify channel and in the log, never
// back in the workflow.
func (s *CheckoutService) finishVerification(orderID string) {
	s.setState(StateVerifying)
	if s.VerifyBeforeSettle {
		// Already confirmed before settlement.
		s.setState(StateDone)
		s.deliverVerify(VerifyOutcome{OrderID: orderID})
		return
	}
	go func() {
		err := s.Gateway.VerifyPayment(context.Background(), orderID)
		if err != nil {
			utils.LogEvent(s.reqID(), "checkout", "verify_failed", err.Error())
		} else {
			utils.LogEvent(s.reqID(), "checkout", "verified", "order_id="+orderID)
		}
		s.setState(StateDone)
		s.deliverVerify(VerifyOutcome{OrderID: orderID, Err: err})
	}()
}

func (s *CheckoutService) deliverVerify(out VerifyOutcome) {
	select {
	case s.verify <- out:
	default:
	}
}

func (s *CheckoutService) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *CheckoutService) reqID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestID
}

// OrderID returns the order correlation id of the current attempt, "" before
// a session was created.
func (s *CheckoutService) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}
