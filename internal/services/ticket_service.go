package services

import (
	"context"
	"sync"

	"trainticket/internal/domain"
	"trainticket/internal/utils"
)

// Gateway is the remote data surface of the booking backend.
type Gateway interface {
	FetchBookingByID(ctx context.Context, id string) (domain.PassengerBooking, error)
	FetchTrainByCode(ctx context.Context, code string) (domain.TrainSeatRecord, error)
	CreatePaymentSession(ctx context.Context) (domain.PaymentSession, error)
	UpdateTrainSeats(ctx context.Context, id string, rec domain.TrainSeatRecord) error
	VerifyPayment(ctx context.Context, orderID string) error
}

// TrainCache holds one fetched record per train code, so a code is looked up
// at most once for the lifetime of the screen.
type TrainCache struct {
	mu     sync.Mutex
	byCode map[string]domain.TrainSeatRecord
}

func NewTrainCache() *TrainCache {
	return &TrainCache{byCode: map[string]domain.TrainSeatRecord{}}
}

func (c *TrainCache) get(code string) (domain.TrainSeatRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.byCode[code]
	return rec, ok
}

func (c *TrainCache) put(code string, rec domain.TrainSeatRecord) {
	c.mu.Lock()
	c.byCode[code] = rec
	c.mu.Unlock()
}

func (c *TrainCache) drop(code string) {
	c.mu.Lock()
	delete(c.byCode, code)
	c.mu.Unlock()
}

// Display constants carried over from the screen this service feeds.
const (
	summaryQuota       = "GN"
	availabilityQuote  = "GNWL178/WL52"
	journeyDateDisplay = "Fri, 13 Dec"
)

// TicketService assembles the presentation data for the purchase screen.
type TicketService struct {
	Gateway   Gateway
	Trains    *TrainCache
	RequestID string
}

type SummaryRow struct {
	Passenger string `json:"passenger"`
	Class     string `json:"class"`
	Quota     string `json:"quota"`
}

type TicketSummary struct {
	Booking      *domain.PassengerBooking `json:"booking,omitempty"`
	Train        *domain.TrainSeatRecord  `json:"train,omitempty"`
	Rows         []SummaryRow             `json:"rows"`
	Fare         string                   `json:"fare"`
	Route        string                   `json:"route"`
	Availability string                   `json:"availability"`
	JourneyDate  string                   `json:"journey_date"`
}

// BookingFor fetches the passenger booking behind the route parameter.
func (s TicketService) BookingFor(ctx context.Context, bookingID string) (domain.PassengerBooking, error) {
	return s.Gateway.FetchBookingByID(ctx, bookingID)
}

// TrainFor returns the seat record for a code, fetching it the first time
// the code is seen and serving the cached copy afterwards.
func (s TicketService) TrainFor(ctx context.Context, code string) (domain.TrainSeatRecord, error) {
	if rec, ok := s.Trains.get(code); ok {
		return rec, nil
	}
	rec, err := s.Gateway.FetchTrainByCode(ctx, code)
	if err != nil {
		return domain.TrainSeatRecord{}, err
	}
	s.Trains.put(code, rec)
	return rec, nil
}

// Summary builds the view data. Fetch failures degrade silently: the summary
// comes back with the dependent fields unset and the failure only logged,
// never surfaced as an error banner.
func (s TicketService) Summary(ctx context.Context, bookingID string) TicketSummary {
	out := TicketSummary{
		Rows:         []SummaryRow{},
		Fare:         "N/A",
		Availability: availabilityQuote,
		JourneyDate:  journeyDateDisplay,
	}

	booking, err := s.BookingFor(ctx, bookingID)
	if err != nil {
		utils.LogEvent(s.RequestID, "ticket", "fetch_booking_failed", err.Error())
		return out
	}
	out.Booking = &booking
	out.Route = booking.Source + " -> " + booking.Destination
	if fare := booking.Fare(); fare != "" {
		out.Fare = fare
	}
	class := booking.SeatClass()
	if class == "" {
		class = "N/A"
	}
	out.Rows = append(out.Rows, SummaryRow{Passenger: booking.Name, Class: class, Quota: summaryQuota})

	if booking.Code == "" {
		return out
	}
	train, err := s.TrainFor(ctx, booking.Code)
	if err != nil {
		utils.LogEvent(s.RequestID, "ticket", "fetch_train_failed", err.Error())
		return out
	}
	out.Train = &train
	return out
}
