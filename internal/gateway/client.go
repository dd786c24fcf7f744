package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trainticket/internal/domain"
)

// Client issues the typed calls this service makes against the booking
// backend: passenger lookup, train lookup, payment session creation, seat
// update and payment verification.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) FetchBookingByID(ctx context.Context, id string) (domain.PassengerBooking, error) {
	var out domain.PassengerBooking
	if strings.TrimSpace(id) == "" {
		return out, domain.ValidationError{Field: "booking_id", Msg: "id is empty"}
	}
	err := c.getJSON(ctx, "fetch_booking", "/user/bookingid/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) FetchTrainByCode(ctx context.Context, code string) (domain.TrainSeatRecord, error) {
	var out domain.TrainSeatRecord
	if strings.TrimSpace(code) == "" {
		return out, domain.ValidationError{Field: "code", Msg: "train code is empty"}
	}
	err := c.getJSON(ctx, "fetch_train", "/train/getbytraincode/"+url.PathEscape(code), &out)
	return out, err
}

func (c *Client) CreatePaymentSession(ctx context.Context) (domain.PaymentSession, error) {
	var out domain.PaymentSession
	err := c.getJSON(ctx, "create_session", "/payment", &out)
	return out, err
}

// UpdateTrainSeats replaces the whole record. The record's revision travels
// as If-Match; the backend rejects stale writes with 409 or 412, which maps
// to domain.ConflictError.
func (c *Client) UpdateTrainSeats(ctx context.Context, id string, rec domain.TrainSeatRecord) error {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationError{Field: "train_id", Msg: "id is empty"}
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return domain.InternalError{Msg: "encode train record", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+"/train/updatetrainseats/"+url.PathEscape(id), bytes.NewReader(body))
	if err != nil {
		return domain.InternalError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Match", strconv.FormatInt(rec.Rev, 10))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.RemoteError{Op: "update_seats", Err: err}
	}
	defer drainClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusPreconditionFailed:
		return domain.ConflictError{Resource: "train record", Msg: "revision " + strconv.FormatInt(rec.Rev, 10) + " is stale"}
	case resp.StatusCode >= 300:
		return domain.RemoteError{Op: "update_seats", Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) VerifyPayment(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return domain.ValidationError{Field: "order_id", Msg: "order id is empty"}
	}
	body, _ := json.Marshal(map[string]string{"orderId": orderID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return domain.InternalError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.RemoteError{Op: "verify_payment", Err: err}
	}
	defer drainClose(resp.Body)

	if resp.StatusCode >= 300 {
		return domain.RemoteError{Op: "verify_payment", Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.RemoteError{Op: op, Err: err}
	}
	defer drainClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return domain.NotFoundError{Resource: op, Err: domain.RemoteError{Op: op, Status: resp.StatusCode}}
	}
	if resp.StatusCode >= 300 {
		return domain.RemoteError{Op: op, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.RemoteError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
