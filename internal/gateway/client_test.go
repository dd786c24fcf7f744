package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trainticket/internal/domain"
)

func TestFetchBookingByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/user/bookingid/b1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(domain.PassengerBooking{ID: "b1", Name: "Tester", Code: "T100", Seat: "1A 1200"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	b, err := c.FetchBookingByID(context.Background(), "b1")
	if err != nil {
		t.Fatalf("FetchBookingByID returned error: %v", err)
	}
	if b.Name != "Tester" || b.Code != "T100" {
		t.Fatalf("booking = %+v", b)
	}
}

func TestFetchBookingNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchBookingByID(context.Background(), "nope"); !domain.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestFetchTrainByCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train/getbytraincode/T100" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(domain.TrainSeatRecord{
			ID:          "t1",
			Seats:       []domain.SeatClassAvailability{{Class: "1A", Avail: 5}},
			BookedSeats: 10,
			Rev:         7,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	rec, err := c.FetchTrainByCode(context.Background(), "T100")
	if err != nil {
		t.Fatalf("FetchTrainByCode returned error: %v", err)
	}
	if rec.ID != "t1" || rec.Rev != 7 || len(rec.Seats) != 1 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestCreatePaymentSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"payment_session_id":"sess-1","order_id":"ord-1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	sess, err := c.CreatePaymentSession(context.Background())
	if err != nil {
		t.Fatalf("CreatePaymentSession returned error: %v", err)
	}
	if sess.SessionID != "sess-1" || sess.OrderID != "ord-1" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestUpdateTrainSeatsSendsRevision(t *testing.T) {
	var gotIfMatch string
	var gotBody domain.TrainSeatRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/train/updatetrainseats/t1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotIfMatch = r.Header.Get("If-Match")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := domain.TrainSeatRecord{
		ID:          "t1",
		Seats:       []domain.SeatClassAvailability{{Class: "1A", Avail: 4}},
		BookedSeats: 11,
		Rev:         7,
	}
	c := New(srv.URL)
	if err := c.UpdateTrainSeats(context.Background(), "t1", rec); err != nil {
		t.Fatalf("UpdateTrainSeats returned error: %v", err)
	}
	if gotIfMatch != "7" {
		t.Fatalf("If-Match = %q, want 7", gotIfMatch)
	}
	if gotBody.BookedSeats != 11 || len(gotBody.Seats) != 1 || gotBody.Seats[0].Avail != 4 {
		t.Fatalf("body = %+v, full record expected", gotBody)
	}
}

func TestUpdateTrainSeatsStaleRevision(t *testing.T) {
	for _, status := range []int{http.StatusConflict, http.StatusPreconditionFailed} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		c := New(srv.URL)
		err := c.UpdateTrainSeats(context.Background(), "t1", domain.TrainSeatRecord{ID: "t1", Rev: 6})
		srv.Close()
		if !domain.IsConflict(err) {
			t.Fatalf("status %d mapped to %v, want conflict", status, err)
		}
	}
}

func TestVerifyPayment(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/verify" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.VerifyPayment(context.Background(), "ord-1"); err != nil {
		t.Fatalf("VerifyPayment returned error: %v", err)
	}
	if got["orderId"] != "ord-1" {
		t.Fatalf("payload = %v", got)
	}
}

func TestTransportFailureIsRemote(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	if _, err := c.CreatePaymentSession(context.Background()); !domain.IsRemote(err) {
		t.Fatalf("error = %v, want remote", err)
	}
}
